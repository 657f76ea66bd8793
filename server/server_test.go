package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmesh/deskmesh/adapter"
	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/session"
)

type stubRunner struct {
	reply string
	agent string
	err   error
}

func (r *stubRunner) RunTurn(_ context.Context, _ []core.Turn, _ string) (string, string, error) {
	return r.reply, r.agent, r.err
}

func newTestServer(t *testing.T, runner adapter.Runner) (*httptest.Server, *adapter.Adapter) {
	t.Helper()
	desk := adapter.New(session.NewInMemoryStore(), runner)
	srv := httptest.NewServer(NewHandler(desk).Router())
	t.Cleanup(srv.Close)
	return srv, desk
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPostMessage(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{reply: "Your refund is on its way.", agent: "billing"})

	resp := postJSON(t, srv.URL+"/api/sessions/s1/messages", `{"message":"Where is my refund?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Your refund is on its way.", out["reply"])
	assert.Equal(t, "billing", out["agent"])
}

func TestPostMessageValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{reply: "ok", agent: "triage"})

	resp := postJSON(t, srv.URL+"/api/sessions/s1/messages", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/sessions/s1/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSessionAfterExchange(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{reply: "Happy to help.", agent: "triage"})

	resp := postJSON(t, srv.URL+"/api/sessions/abc/messages", `{"message":"hello, my ID is CUST001"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/sessions/abc")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var sess sessionResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&sess))
	assert.Equal(t, "abc", sess.ID)
	assert.Equal(t, "CUST001", sess.CustomerID)
	assert.Equal(t, "triage", sess.LastAgent)
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, core.SpeakerUser, sess.Turns[0].Speaker)
	assert.Equal(t, "triage", sess.Turns[1].Speaker)
}

func TestGetSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{reply: "ok", agent: "triage"})

	resp, err := http.Get(srv.URL + "/api/sessions/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunnerFailureStillReplies(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{err: assert.AnError})

	resp := postJSON(t, srv.URL+"/api/sessions/s1/messages", `{"message":"anyone there?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, adapter.DefaultFallbackReply, out["reply"])
	assert.Equal(t, adapter.FallbackAgent, out["agent"])
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{reply: "ok", agent: "triage"})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
