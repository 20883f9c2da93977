package whatsapp

import (
	"WaGPT/internal/lib/api/response"
	"WaGPT/internal/lib/sl"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	maxBodySize     = 1 << 20
)

// WebhookVerify answers the subscription handshake with the challenge verbatim.
func WebhookVerify(log *slog.Logger, verifier Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.whatsapp"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		query := r.URL.Query()
		challenge := query.Get("hub.challenge")
		if !verifier.VerifyChallenge(query.Get("hub.mode"), query.Get("hub.verify_token"), challenge) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Verification failed"))
			return
		}

		logger.Info("webhook verified")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

// WebhookHandler checks the payload signature and publishes the raw body for
// asynchronous processing. Publish failures are logged and still acknowledged.
func WebhookHandler(log *slog.Logger, verifier Verifier, publisher Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.whatsapp"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			logger.Error("read webhook body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Failed to read body"))
			return
		}

		if !verifier.VerifySignature(body, r.Header.Get(signatureHeader)) {
			logger.Warn("invalid webhook signature", slog.Int("size", len(body)))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Invalid signature"))
			return
		}

		if err = publisher.Publish(r.Context(), body); err != nil {
			logger.Error("publish webhook", sl.Err(err))
		} else {
			logger.Debug("webhook published", slog.Int("size", len(body)))
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
