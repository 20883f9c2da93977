package history

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/api/response"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// GetConversation returns the stored turns of a sender, oldest first.
func GetConversation(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("history not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("History not available"))
			return
		}

		sender := chi.URLParam(r, "sender")
		if sender == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing sender"))
			return
		}

		turns := handler.GetHistory(r.Context(), sender)
		if turns == nil {
			turns = []entity.ChatTurn{}
		}
		render.JSON(w, r, response.Ok(turns))
	}
}
