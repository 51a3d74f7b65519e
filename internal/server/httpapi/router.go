package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the middleware chain and every route of the web layer.
func NewRouter(h *Handler, sessions *SessionManager, log logging.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Logging(log))
	r.Use(Recovery(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(LoadSession(sessions))

	r.Get("/healthz", h.health)
	r.Get("/", h.home)

	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Post("/logout", h.logout)
	r.Post("/reset_password", h.requestReset)
	r.Post("/reset_password/{token}", h.resetPassword)

	// gated node routes redirect to /login themselves
	r.Get("/getfile/{id}", h.getFile)
	r.Post("/delete/{id}", h.deleteNode)

	r.Group(func(r chi.Router) {
		r.Use(RequireLogin)

		r.Get("/data/*", h.listData)
		r.Post("/create_folder/*", h.createFolder)
		r.With(LimitBody(maxUploadBytes)).Post("/upload_file/*", h.uploadFile)

		r.Get("/account", h.account)
		r.With(LimitBody(maxPictureBytes)).Post("/account", h.updateAccount)
		r.Get("/account/picture", h.accountPicture)
		r.With(LimitBody(maxPictureBytes)).Post("/account/picture", h.updateAccountPicture)
	})

	return r
}
