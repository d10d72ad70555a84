package hass

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

// Session is one connect-authenticate-subscribe-operate cycle. Its correlator
// and handshake state never outlive it.
type Session struct {
	ID        string
	StartedAt time.Time

	conn       Conn
	correlator *Correlator
	handshake  *Handshake
	router     *Router
	log        zerolog.Logger
}

func newSession(conn Conn, token string, sink StateSink, log zerolog.Logger) *Session {
	id := uuid.NewString()
	log = log.With().Str("session_id", id).Logger()
	correlator := NewCorrelator(conn)
	return &Session{
		ID:         id,
		StartedAt:  time.Now(),
		conn:       conn,
		correlator: correlator,
		handshake:  NewHandshake(conn, correlator, token, log),
		router:     NewRouter(correlator, sink, log),
		log:        log,
	}
}

// Submit sends payload through this session's correlator.
func (s *Session) Submit(payload Payload) (int64, error) {
	return s.correlator.Submit(payload)
}

// Pending returns the number of requests awaiting a result.
func (s *Session) Pending() int {
	return s.correlator.Pending()
}

// start authenticates and subscribes. The connection is closed if ctx is
// cancelled meanwhile.
func (s *Session) start(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	if err := s.handshake.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// serve consumes inbound messages one at a time, in arrival order, until the
// connection fails or ctx is cancelled.
func (s *Session) serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	s.log.Info().Msg("Starting main loop")
	for {
		data, err := s.conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return apperrors.NewConnectionLost(err)
		}
		s.router.Handle(data)
	}
}
