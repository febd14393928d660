package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/yptox/Twitter-2/internal/session"
)

const wsWriteTimeout = 5 * time.Second

// handleWSEvents pushes the same event stream as /api/events over a
// WebSocket. Messages from the client are ignored; reading only detects the
// close.
func handleWSEvents(logger *slog.Logger, broker *session.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe()
		defer broker.Unsubscribe(ch)

		ctx := conn.CloseRead(r.Context())

		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed", "error", ctx.Err())
				return
			case data := <-ch:
				if err := writeWS(ctx, conn, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}

func writeWS(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
