package relay

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/collabmd/server/internal/session"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Options tunes per-connection behavior.
type Options struct {
	SendQueueSize int
	WriteTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = 32
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

// Handler upgrades collaboration requests to WebSocket and runs the
// per-connection read loop.
type Handler struct {
	registry *session.Registry
	protocol *Protocol
	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler wires the relay surface over the shared registry and gate.
func NewHandler(registry *session.Registry, gate *session.PasswordGate, opts Options, logger zerolog.Logger) *Handler {
	logger = logger.With().Str("component", "relay").Logger()
	return &Handler{
		registry: registry,
		protocol: NewProtocol(gate, NewBroadcaster(registry, logger), logger),
		opts:     opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are served from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// RegisterRoutes mounts the collaboration endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/collaborate/{sessionID}", h.handleCollaborate)
}

func (h *Handler) handleCollaborate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	c := newConn(ws, sessionID, h.opts.SendQueueSize, h.opts.WriteTimeout, h.logger)
	go c.writePump()

	h.registry.Join(sessionID, c)
	c.logger.Info().Msg("client connected")

	defer func() {
		h.registry.Leave(sessionID, c)
		c.Close()
		c.logger.Info().Msg("client disconnected")
	}()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("read error")
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))
		if msgType != websocket.TextMessage {
			continue
		}
		h.protocol.HandleFrame(c, payload)
	}
}
