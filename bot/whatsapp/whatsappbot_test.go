package whatsapp

import (
	"WaGPT/internal/config"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBot(baseURL string) *WhatsAppBot {
	conf := &config.Config{}
	conf.WhatsApp.BaseURL = baseURL
	conf.WhatsApp.ApiToken = "token"
	conf.WhatsApp.VerifyToken = "verify-me"
	conf.WhatsApp.AppSecret = "app-secret"
	conf.WhatsApp.BusinessNumber = "1234"
	return NewWhatsAppBot(conf, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	bot := newTestBot("http://unused")
	body := []byte(`{"object":"whatsapp_business_account"}`)

	assert.True(t, bot.VerifySignature(body, sign("app-secret", body)))
	assert.False(t, bot.VerifySignature(body, sign("wrong", body)))
	assert.False(t, bot.VerifySignature(body, ""))
	assert.False(t, bot.VerifySignature(body, "sha1=abc"))
	assert.False(t, bot.VerifySignature([]byte(`{}`), sign("app-secret", body)))
}

func TestVerifyChallenge(t *testing.T) {
	bot := newTestBot("http://unused")

	assert.True(t, bot.VerifyChallenge("subscribe", "verify-me", "12345"))
	assert.False(t, bot.VerifyChallenge("unsubscribe", "verify-me", "12345"))
	assert.False(t, bot.VerifyChallenge("subscribe", "nope", "12345"))
	assert.False(t, bot.VerifyChallenge("subscribe", "verify-me", ""))
}

func TestSendText(t *testing.T) {
	var got sendMessageRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	bot := newTestBot(srv.URL)
	require.NoError(t, bot.SendText(context.Background(), "15550001111", "hello"))

	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, "/1234/messages", path)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "15550001111", got.To)
	require.NotNil(t, got.Text)
	assert.Equal(t, "hello", got.Text.Body)
	assert.Nil(t, got.Image)
}

func TestSendImage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
	}))
	defer srv.Close()

	bot := newTestBot(srv.URL)
	err := bot.SendImage(context.Background(), "15550001111", "https://img.example.com/a.png")
	assert.ErrorIs(t, err, ErrAPI)
}

func TestDownloadMedia(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/media-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"` + srvURL + `/blob/media-1","mime_type":"audio/ogg"}`))
	})
	mux.HandleFunc("/blob/media-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("OggS-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	bot := newTestBot(srv.URL)
	media, err := bot.DownloadMedia(context.Background(), "media-1")
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", media.MimeType)
	assert.Equal(t, []byte("OggS-bytes"), media.Data)
}

func TestDownloadMedia_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	bot := newTestBot(srv.URL)
	_, err := bot.DownloadMedia(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAPI)
}

func TestDownloadMedia_SizeLimit(t *testing.T) {
	limit := maxMediaSize
	maxMediaSize = 10
	t.Cleanup(func() { maxMediaSize = limit })

	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/exact", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"` + srvURL + `/blob/exact","mime_type":"image/jpeg"}`))
	})
	mux.HandleFunc("/blob/exact", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"` + srvURL + `/blob/big","mime_type":"image/jpeg"}`))
	})
	mux.HandleFunc("/blob/big", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789A"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	bot := newTestBot(srv.URL)

	media, err := bot.DownloadMedia(context.Background(), "exact")
	require.NoError(t, err)
	assert.Len(t, media.Data, 10)

	_, err = bot.DownloadMedia(context.Background(), "big")
	assert.ErrorIs(t, err, ErrMediaTooLarge)
}
