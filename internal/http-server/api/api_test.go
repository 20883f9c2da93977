package api

import (
	"WaGPT/entity"
	"WaGPT/internal/config"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubCore struct{}

func (stubCore) GetHistory(context.Context, string) []entity.ChatTurn { return nil }
func (stubCore) ResetHistory(context.Context, string) error             { return nil }

type stubVerifier struct{}

func (stubVerifier) VerifyChallenge(mode, token, challenge string) bool { return token == "vt" }
func (stubVerifier) VerifySignature(_ []byte, sig string) bool         { return sig == "sha256=ok" }

type stubPublisher struct{ calls int }

func (p *stubPublisher) Publish(context.Context, []byte) error {
	p.calls++
	return nil
}

func newTestRouter(pub *stubPublisher) http.Handler {
	conf := &config.Config{}
	conf.Listen.ApiKey = "key"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(conf, log, stubCore{}, Services{
		Webhook:   stubVerifier{},
		Publisher: pub,
	})
}

func TestRoutes(t *testing.T) {
	pub := &stubPublisher{}
	router := newTestRouter(pub)

	tests := []struct {
		name   string
		method string
		target string
		header map[string]string
		body   string
		status int
	}{
		{"health", http.MethodGet, "/healthz", nil, "", http.StatusOK},
		{"handshake", http.MethodGet, "/whatsapp?hub.mode=subscribe&hub.verify_token=vt&hub.challenge=c", nil, "", http.StatusOK},
		{"unsigned webhook", http.MethodPost, "/whatsapp", nil, "{}", http.StatusUnauthorized},
		{"signed webhook", http.MethodPost, "/whatsapp", map[string]string{"X-Hub-Signature-256": "sha256=ok"}, "{}", http.StatusOK},
		{"history without key", http.MethodGet, "/api/v1/history/111", nil, "", http.StatusUnauthorized},
		{"history with key", http.MethodGet, "/api/v1/history/111", map[string]string{"Authorization": "Bearer key"}, "", http.StatusOK},
		{"reset with key", http.MethodDelete, "/api/v1/history/111", map[string]string{"Authorization": "Bearer key"}, "", http.StatusOK},
		{"unknown", http.MethodGet, "/nope", nil, "", http.StatusNotFound},
		{"media without store", http.MethodGet, "/media/abc", nil, "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, 1, pub.calls)
}
