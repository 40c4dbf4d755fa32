package relay

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/collabmd/server/internal/session"
)

const (
	actionSetPassword = "setPassword"
	actionJoin        = "join"
)

// splitControl splits a frame into its leading token and remainder. ok
// is false when the frame carries no ':' at all, in which case the frame
// cannot be a control message. An empty remainder still counts.
func splitControl(payload string) (action, remainder string, ok bool) {
	i := strings.Index(payload, ":")
	if i < 0 {
		return "", "", false
	}
	return payload[:i], payload[i+1:], true
}

// Protocol classifies each inbound text frame as a control message or a
// broadcast payload and drives the gate and broadcaster accordingly.
// Connections carry no sticky authenticated state: authorization is
// checked transactionally on each join attempt, and the broadcast branch
// is ungated.
type Protocol struct {
	gate        *session.PasswordGate
	broadcaster *Broadcaster
	logger      zerolog.Logger
}

// NewProtocol creates the per-connection message dispatcher.
func NewProtocol(gate *session.PasswordGate, broadcaster *Broadcaster, logger zerolog.Logger) *Protocol {
	return &Protocol{gate: gate, broadcaster: broadcaster, logger: logger}
}

// HandleFrame processes one inbound text frame from c.
func (p *Protocol) HandleFrame(c *Conn, payload []byte) {
	action, remainder, isControl := splitControl(string(payload))
	switch {
	case isControl && action == actionSetPassword:
		p.gate.Set(c.SessionID(), remainder)
		if !c.Enqueue([]byte(c.SessionID())) {
			p.logger.Warn().Str("conn", c.ID()).Msg("dropped setPassword ack")
		}
	case isControl && action == actionJoin:
		if p.gate.Verify(c.SessionID(), remainder) {
			if !c.Enqueue([]byte("Successfully joined session " + c.SessionID())) {
				p.logger.Warn().Str("conn", c.ID()).Msg("dropped join ack")
			}
			return
		}
		if c.Open() {
			c.Enqueue([]byte("SYSTEM:Incorrect password for session " + c.SessionID()))
		}
		c.Close()
	default:
		// Anything else is document content, relayed verbatim. Content
		// that happens to start with "setPassword:" or "join:" is taken
		// as control above; that ambiguity is part of the wire format.
		p.broadcaster.Broadcast(c.SessionID(), c, payload)
	}
}
