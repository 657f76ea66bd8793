package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner is a scripted Runner capturing what the adapter sends it.
type fakeRunner struct {
	reply      string
	agent      string
	err        error
	transcript []core.Turn
	customerID string
	calls      int
}

func (f *fakeRunner) RunTurn(_ context.Context, transcript []core.Turn, customerID string) (string, string, error) {
	f.calls++
	f.transcript = transcript
	f.customerID = customerID
	return f.reply, f.agent, f.err
}

func TestAdapter_Handle(t *testing.T) {
	runner := &fakeRunner{reply: "Your refund has been processed.", agent: "billing"}
	a := New(session.NewInMemoryStore(), runner)

	reply, err := a.Handle(context.Background(), "t1", "I want a refund")
	require.NoError(t, err)
	assert.Equal(t, "Your refund has been processed.", reply.Text)
	assert.Equal(t, "billing", reply.Agent)

	// The runner saw the full transcript including the new user turn.
	require.Len(t, runner.transcript, 1)
	assert.Equal(t, core.SpeakerUser, runner.transcript[0].Speaker)
	assert.Equal(t, "I want a refund", runner.transcript[0].Text)

	// Session "t1" now has exactly the two turns of this exchange.
	sess, err := a.Session("t1")
	require.NoError(t, err)
	require.Equal(t, 2, sess.Len())
	turns := sess.Transcript()
	assert.Equal(t, core.SpeakerUser, turns[0].Speaker)
	assert.Equal(t, "billing", turns[1].Speaker)
	assert.Equal(t, "billing", sess.GetLastAgent())
}

func TestAdapter_TurnOrderAcrossExchanges(t *testing.T) {
	runner := &fakeRunner{reply: "ok", agent: "triage"}
	a := New(session.NewInMemoryStore(), runner)

	inputs := []string{"first", "second", "third"}
	for _, text := range inputs {
		_, err := a.Handle(context.Background(), "t1", text)
		require.NoError(t, err)
	}

	sess, err := a.Session("t1")
	require.NoError(t, err)
	turns := sess.Transcript()
	require.Len(t, turns, 6)
	for i, want := range inputs {
		assert.Equal(t, want, turns[2*i].Text, "user turns must keep submission order")
		assert.Equal(t, "ok", turns[2*i+1].Text)
	}
}

func TestAdapter_SessionIsolation(t *testing.T) {
	runner := &fakeRunner{reply: "ok", agent: "triage"}
	a := New(session.NewInMemoryStore(), runner)

	_, err := a.Handle(context.Background(), "k1", "for k1")
	require.NoError(t, err)
	_, err = a.Handle(context.Background(), "k2", "for k2")
	require.NoError(t, err)

	for key, want := range map[string]string{"k1": "for k1", "k2": "for k2"} {
		sess, err := a.Session(key)
		require.NoError(t, err)
		require.Equal(t, 2, sess.Len())
		assert.Equal(t, want, sess.Transcript()[0].Text)
	}
}

func TestAdapter_FallbackOnRunnerError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("model timeout")}
	a := New(session.NewInMemoryStore(), runner)

	reply, err := a.Handle(context.Background(), "t2", "help")
	require.NoError(t, err, "runner failures must not propagate")
	assert.NotEmpty(t, reply.Text)
	assert.Equal(t, DefaultFallbackReply, reply.Text)
	assert.Equal(t, FallbackAgent, reply.Agent)

	// History still grows by exactly one outbound turn.
	sess, err := a.Session("t2")
	require.NoError(t, err)
	require.Equal(t, 2, sess.Len())
	assert.Equal(t, DefaultFallbackReply, sess.Transcript()[1].Text)
}

func TestAdapter_FallbackOnEmptyReply(t *testing.T) {
	runner := &fakeRunner{reply: "   ", agent: "triage"}
	a := New(session.NewInMemoryStore(), runner)

	reply, err := a.Handle(context.Background(), "t3", "help")
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackReply, reply.Text)
}

func TestAdapter_CustomFallback(t *testing.T) {
	runner := &fakeRunner{err: errors.New("down")}
	a := New(session.NewInMemoryStore(), runner, func(o *Options) {
		o.FallbackReply = "please hold"
	})

	reply, err := a.Handle(context.Background(), "t4", "help")
	require.NoError(t, err)
	assert.Equal(t, "please hold", reply.Text)
}

func TestAdapter_ExtractsCustomerID(t *testing.T) {
	runner := &fakeRunner{reply: "ok", agent: "triage"}
	a := New(session.NewInMemoryStore(), runner)

	_, err := a.Handle(context.Background(), "t5", "my customer id is cust001")
	require.NoError(t, err)
	assert.Equal(t, "CUST001", runner.customerID)

	sess, err := a.Session("t5")
	require.NoError(t, err)
	assert.Equal(t, "CUST001", sess.GetCustomerID())

	// Once resolved, the id sticks for later exchanges.
	_, err = a.Handle(context.Background(), "t5", "any update?")
	require.NoError(t, err)
	assert.Equal(t, "CUST001", runner.customerID)
}

func TestExtractCustomerID(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I am CUST001", "CUST001"},
		{"id cust0042 please", "CUST0042"},
		{"customer service is great", ""},
		{"CUSTOM order", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractCustomerID(tt.text), tt.text)
	}
}
