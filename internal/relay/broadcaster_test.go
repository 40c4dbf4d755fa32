package relay

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabmd/server/internal/session"
)

// stubMember records what the broadcaster hands it.
type stubMember struct {
	id     string
	open   bool
	accept bool
	got    [][]byte
}

func (m *stubMember) ID() string { return m.id }
func (m *stubMember) Open() bool { return m.open }

func (m *stubMember) Enqueue(payload []byte) bool {
	if !m.accept {
		return false
	}
	m.got = append(m.got, payload)
	return true
}

func TestBroadcastSkipsSender(t *testing.T) {
	registry := session.NewRegistry()
	sender := &stubMember{id: "sender", open: true, accept: true}
	peer := &stubMember{id: "peer", open: true, accept: true}
	registry.Join("doc", sender)
	registry.Join("doc", peer)

	b := NewBroadcaster(registry, zerolog.Nop())
	b.Broadcast("doc", sender, []byte("# Title"))

	require.Len(t, peer.got, 1)
	assert.Equal(t, "# Title", string(peer.got[0]))
	assert.Empty(t, sender.got)
}

func TestBroadcastIsolatesFailedRecipients(t *testing.T) {
	registry := session.NewRegistry()
	sender := &stubMember{id: "sender", open: true, accept: true}
	saturated := &stubMember{id: "slow", open: true, accept: false}
	healthy := &stubMember{id: "healthy", open: true, accept: true}
	registry.Join("doc", sender)
	registry.Join("doc", saturated)
	registry.Join("doc", healthy)

	b := NewBroadcaster(registry, zerolog.Nop())
	b.Broadcast("doc", sender, []byte("text"))

	require.Len(t, healthy.got, 1)
	assert.Empty(t, saturated.got)
}

func TestBroadcastSkipsClosedMembers(t *testing.T) {
	registry := session.NewRegistry()
	sender := &stubMember{id: "sender", open: true, accept: true}
	closed := &stubMember{id: "closed", open: false, accept: true}
	registry.Join("doc", sender)
	registry.Join("doc", closed)

	b := NewBroadcaster(registry, zerolog.Nop())
	b.Broadcast("doc", sender, []byte("text"))

	assert.Empty(t, closed.got)
}

func TestBroadcastIsScopedToSession(t *testing.T) {
	registry := session.NewRegistry()
	sender := &stubMember{id: "sender", open: true, accept: true}
	sameSession := &stubMember{id: "same", open: true, accept: true}
	otherSession := &stubMember{id: "other", open: true, accept: true}
	registry.Join("s1", sender)
	registry.Join("s1", sameSession)
	registry.Join("s2", otherSession)

	b := NewBroadcaster(registry, zerolog.Nop())
	b.Broadcast("s1", sender, []byte("text"))

	assert.Len(t, sameSession.got, 1)
	assert.Empty(t, otherSession.got)
}
