package media

import (
	"WaGPT/internal/lib/sl"
	mediastore "WaGPT/internal/service/media-store"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Store interface {
	Open(ctx context.Context, id, expires, sig string) (string, string, io.ReadCloser, error)
}

// DownloadFile streams a stored media file to the HTTP response.
// Endpoint: GET /media/{id}?expires=&sig=
// The signed query replaces bearer auth so the model provider can fetch the link.
func DownloadFile(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()
		filename, mimeType, reader, err := store.Open(r.Context(), id, query.Get("expires"), query.Get("sig"))
		if errors.Is(err, mediastore.ErrInvalidLink) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if err != nil {
			log.Error("failed to download file",
				slog.String("file_id", id),
				sl.Err(err),
			)
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer reader.Close()

		if mimeType != "" {
			w.Header().Set("Content-Type", mimeType)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))

		if _, err := io.Copy(w, reader); err != nil {
			log.Error("failed to stream file",
				slog.String("file_id", id),
				sl.Err(err),
			)
		}
	}
}
