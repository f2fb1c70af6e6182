package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/conversation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamEvent is one frame written to the WebSocket.
type StreamEvent struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
}

type StreamHandler struct {
	conversationUseCase *conversation.ConversationUseCase
	upgrader            websocket.Upgrader
}

// NewStreamHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewStreamHandler(conversationUseCase *conversation.ConversationUseCase, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &StreamHandler{
		conversationUseCase: conversationUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Stream handles GET /matches/:id/stream. Messages from the counterpart are
// marked read as they are delivered.
func (h *StreamHandler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	matchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	sub, err := h.conversationUseCase.Subscribe(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "match_id", matchID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go readPump(conn, cancel)

	slog.Debug("stream opened", "match_id", matchID, "user_id", userID)
	h.writePump(ctx, conn, sub.Messages(), matchID, userID)
	slog.Debug("stream closed", "match_id", matchID, "user_id", userID)
}

// readPump discards client frames and cancels ctx when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writePump(ctx context.Context, conn *websocket.Conn, msgs <-chan *domain.Message, matchID, userID uuid.UUID) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// subscription dropped as a slow consumer; the client reconnects
				// and catches up with ?after=<seq>
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "lagging"))
				return
			}
			if err := conn.WriteJSON(StreamEvent{Type: "message", Message: msg}); err != nil {
				return
			}
			if msg.SenderID != userID {
				if _, err := h.conversationUseCase.MarkRead(ctx, matchID, userID); err != nil {
					slog.Warn("failed to mark streamed message read", "match_id", matchID, "error", err)
				}
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
