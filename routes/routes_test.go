package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakePresence int

func (p fakePresence) ConnectionCount() int { return int(p) }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		deps       map[string]Pinger
		wantStatus int
		wantRedis  string
	}{
		{"all up", map[string]Pinger{"mongodb": fakePinger{}, "redis": fakePinger{}}, http.StatusOK, "up"},
		{"redis down", map[string]Pinger{"mongodb": fakePinger{}, "redis": fakePinger{err: errors.New("dial tcp")}}, http.StatusServiceUnavailable, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", healthCheck(Options{Version: "1.2.3", Dependencies: tt.deps, Presence: fakePresence(4)}))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body struct {
				Version              string            `json:"version"`
				Dependencies         map[string]string `json:"dependencies"`
				WebsocketConnections int               `json:"websocket_connections"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Dependencies["redis"] != tt.wantRedis || body.Dependencies["mongodb"] != "up" {
				t.Errorf("dependencies = %v", body.Dependencies)
			}
			if body.WebsocketConnections != 4 || body.Version != "1.2.3" {
				t.Errorf("unexpected body %s", w.Body.String())
			}
		})
	}
}
