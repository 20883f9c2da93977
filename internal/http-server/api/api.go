package api

import (
	"WaGPT/internal/config"
	"WaGPT/internal/http-server/handlers/errors"
	"WaGPT/internal/http-server/handlers/history"
	"WaGPT/internal/http-server/handlers/media"
	"WaGPT/internal/http-server/handlers/whatsapp"
	"WaGPT/internal/http-server/middleware/authenticate"
	"WaGPT/internal/lib/sl"
	"WaGPT/internal/ws"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const requestTimeout = 30 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	history.Core
}

// Services are the collaborators the routes delegate to besides the core.
type Services struct {
	Webhook   whatsapp.Verifier
	Publisher whatsapp.Publisher
	Media     media.Store
	Monitor   *ws.Hub
}

func New(conf *config.Config, log *slog.Logger, handler Handler, services Services) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler, services),
		ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}

func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, services Services) http.Handler {
	auth := authenticate.StaticKey(conf.Listen.ApiKey)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/whatsapp", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/", whatsapp.WebhookVerify(log, services.Webhook))
		r.Post("/", whatsapp.WebhookHandler(log, services.Webhook, services.Publisher))
	})

	router.Get("/media/{id}", media.DownloadFile(log, services.Media))

	router.Route("/api/v1", func(v1 chi.Router) {
		if services.Monitor != nil {
			v1.Get("/monitor", func(w http.ResponseWriter, r *http.Request) {
				ws.ServeWs(services.Monitor, auth, log, w, r)
			})
		}
		v1.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(authenticate.New(log, auth))
			r.Get("/history/{sender}", history.GetConversation(log, handler))
			r.Delete("/history/{sender}", history.ResetConversation(log, handler))
		})
	})

	return router
}
