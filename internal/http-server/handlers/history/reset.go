package history

import (
	"WaGPT/internal/lib/api/response"
	"WaGPT/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func ResetConversation(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("reset conversation not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Reset conversation not available"))
			return
		}

		sender := chi.URLParam(r, "sender")
		if sender == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing sender"))
			return
		}

		err := handler.ResetHistory(r.Context(), sender)
		if err != nil {
			log.With(slog.String("sender", sender)).Error("reset conversation", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Reset failed"))
			return
		}

		render.JSON(w, r, response.Ok("Conversation reset successfully"))
	}
}
