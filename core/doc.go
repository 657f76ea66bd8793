// Package core defines the domain contracts shared by every layer of
// deskmesh: conversation turns, sessions, the SessionStore interface and the
// sentinel errors of the session contract. Keeping the contracts here (and
// only implementations in the session package) prevents higher level packages
// (crew, adapter, server) from depending on concrete storage.
package core
