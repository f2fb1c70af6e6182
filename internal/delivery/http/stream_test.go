package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/delivery/http/handler"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func TestStreamDeliversAndMarksRead(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	eventID, alice, bob := uuid.New(), uuid.New(), uuid.New()
	matches := app.store.Matches()
	m, _, err := matches.UpsertInterest(ctx, eventID, alice, bob, time.Now())
	if err != nil {
		t.Fatalf("UpsertInterest: %v", err)
	}
	if _, _, err := matches.UpsertInterest(ctx, eventID, bob, alice, time.Now()); err != nil {
		t.Fatalf("UpsertInterest: %v", err)
	}

	srv := httptest.NewServer(app.engine)
	defer srv.Close()

	bobTok := app.token(t, bob)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/api/v1/matches/%s/stream?access_token=%s", m.ID, bobTok)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v (%v)", err, resp)
	}
	defer conn.Close()

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/matches/%s/messages", m.ID), app.token(t, alice), map[string]string{"content": "hello there"})
	expectStatus(t, rec, http.StatusCreated)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev handler.StreamEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "message" || ev.Message == nil || ev.Message.Content != "hello there" {
		t.Fatalf("unexpected event %+v", ev)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := app.store.Messages().CountUnread(ctx, m.ID, bob)
		if err != nil {
			t.Fatalf("CountUnread: %v", err)
		}
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("streamed message was not marked read")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStreamRejectsOutsider(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	m, _, err := app.store.Matches().UpsertInterest(ctx, uuid.New(), uuid.New(), uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("UpsertInterest: %v", err)
	}

	rec := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/matches/%s/stream", m.ID), app.token(t, uuid.New()), nil)
	expectStatus(t, rec, http.StatusForbidden)
}
