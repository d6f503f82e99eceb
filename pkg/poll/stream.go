package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"map_console/pkg/model"
)

// Stream is a push alternative to polling. The server sends the full
// constraint list as one JSON text message whenever it changes; the same
// content diff decides whether to repaint.
type Stream struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewStream creates a stream reader for a ws:// or wss:// URL.
func NewStream(url string, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stream{
		url:    url,
		header: http.Header{},
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// Subscribe dials the stream and returns a channel of constraint lists.
// The channel is closed when ctx ends or the connection drops; the error
// that ended it, if any, is sent on errc.
func (s *Stream) Subscribe(ctx context.Context) (<-chan []model.Constraint, <-chan error, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", s.url, err)
	}
	s.logger.Info("constraint stream connected", "url", s.url)

	out := make(chan []model.Constraint)
	errc := make(chan error, 1)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		case <-done:
		}
		conn.Close()
	}()

	go func() {
		defer close(out)
		defer close(done)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					errc <- err
				}
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var cs []model.Constraint
			if err := json.Unmarshal(data, &cs); err != nil {
				s.logger.Warn("bad constraint stream message", "err", err)
				continue
			}
			select {
			case out <- cs:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc, nil
}

// Follow applies every streamed list through p, calling onChange after
// each one that changed the cache, until the stream ends.
func (s *Stream) Follow(ctx context.Context, p *Poller, onChange func()) error {
	updates, errc, err := s.Subscribe(ctx)
	if err != nil {
		return err
	}
	for cs := range updates {
		if p.Apply(cs) && onChange != nil {
			onChange()
		}
	}
	select {
	case err := <-errc:
		return err
	default:
		return ctx.Err()
	}
}
