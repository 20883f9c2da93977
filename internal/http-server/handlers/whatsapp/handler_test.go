package whatsapp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	signature string
}

func (f fakeVerifier) VerifyChallenge(mode, token, challenge string) bool {
	return mode == "subscribe" && token == "vt" && challenge != ""
}

func (f fakeVerifier) VerifySignature(_ []byte, signature string) bool {
	return signature == f.signature
}

type fakePublisher struct {
	mu     sync.Mutex
	bodies [][]byte
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	return f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhookVerify(t *testing.T) {
	h := WebhookVerify(discard(), fakeVerifier{})

	tests := []struct {
		name   string
		query  string
		status int
		body   string
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=vt&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=no&hub.challenge=12345", http.StatusUnauthorized, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=vt&hub.challenge=12345", http.StatusUnauthorized, ""},
		{"no challenge", "hub.mode=subscribe&hub.verify_token=vt", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whatsapp?"+tt.query, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	pub := &fakePublisher{}
	h := WebhookHandler(discard(), fakeVerifier{signature: "sha256=good"}, pub)

	req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader(`{"entry":[]}`))
	req.Header.Set(signatureHeader, "sha256=bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, pub.bodies)
}

func TestWebhookHandler_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	h := WebhookHandler(discard(), fakeVerifier{signature: "sha256=good"}, pub)

	req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader(`{"entry":[]}`))
	req.Header.Set(signatureHeader, "sha256=good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.bodies, 1)
	assert.Equal(t, `{"entry":[]}`, string(pub.bodies[0]))
}

func TestWebhookHandler_PublishFailureStillAcknowledged(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	h := WebhookHandler(discard(), fakeVerifier{signature: "sha256=good"}, pub)

	req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader(`{}`))
	req.Header.Set(signatureHeader, "sha256=good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.bodies, 1)
}
