package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/voicepair/internal/app/orch"
	"github.com/dkeye/voicepair/internal/core"
	"github.com/dkeye/voicepair/internal/domain"
)

type fixedStats orch.Stats

func (f fixedStats) Stats() orch.Stats { return orch.Stats(f) }

func serve(t *testing.T, h *Handlers, path string) map[string]any {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", path, w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return body
}

func TestStatus(t *testing.T) {
	h := NewHandlers(fixedStats{}, false)
	h.started = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return h.started.Add(90 * time.Second) }

	body := serve(t, h, "/api/status")
	if body["status"] != "ok" || body["uptime"] != 90.0 {
		t.Fatalf("status = %v", body)
	}
	if body["timestamp"] != "2026-01-01T00:01:30.000Z" {
		t.Fatalf("timestamp = %v", body["timestamp"])
	}
}

func TestHealth(t *testing.T) {
	body := serve(t, NewHandlers(fixedStats{}, true), "/api/health")
	checks, _ := body["checks"].(map[string]any)
	if body["status"] != "healthy" || checks["websocket"] != "ok" || checks["upstream"] != "enabled" {
		t.Fatalf("health = %v", body)
	}
}

func TestSessionsAndClients(t *testing.T) {
	stats := fixedStats{
		Clients:  3,
		Sessions: 3,
		Rooms: []core.RoomInfo{
			{ID: "r1", Occupants: []domain.UserID{"a", "b"}, State: domain.RoomPaired},
			{ID: "r2", Occupants: []domain.UserID{"c"}, State: domain.RoomWaiting},
		},
	}
	h := NewHandlers(stats, false)

	body := serve(t, h, "/api/sessions")
	rooms, _ := body["rooms"].([]any)
	if body["sessions_count"] != 3.0 || len(rooms) != 2 {
		t.Fatalf("sessions = %v", body)
	}
	if r0 := rooms[0].(map[string]any); r0["state"] != "paired" {
		t.Fatalf("room state = %v", r0)
	}

	body = serve(t, h, "/api/clients")
	if body["clients_count"] != 3.0 {
		t.Fatalf("clients = %v", body)
	}
}

func TestSessionsEmptyRoomsIsArray(t *testing.T) {
	body := serve(t, NewHandlers(fixedStats{}, false), "/api/sessions")
	if rooms, ok := body["rooms"].([]any); !ok || len(rooms) != 0 {
		t.Fatalf("rooms = %#v", body["rooms"])
	}
}
