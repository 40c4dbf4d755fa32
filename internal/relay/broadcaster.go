package relay

import (
	"github.com/rs/zerolog"

	"github.com/collabmd/server/internal/session"
)

// Broadcaster fans a payload out to every other open member of a
// session.
type Broadcaster struct {
	registry *session.Registry
	logger   zerolog.Logger
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *session.Registry, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, logger: logger}
}

// Broadcast delivers payload to every member of sessionID except sender.
// Delivery is best effort per recipient: a closed peer or a saturated
// queue drops that one copy without affecting the others, and nothing is
// ever reported back to the sender. No registry lock is held while
// enqueueing.
func (b *Broadcaster) Broadcast(sessionID string, sender session.Member, payload []byte) {
	for _, m := range b.registry.MembersExcept(sessionID, sender) {
		if !m.Enqueue(payload) {
			b.logger.Warn().Str("session", sessionID).Str("conn", m.ID()).Msg("dropped frame for slow or closed member")
		}
	}
}
