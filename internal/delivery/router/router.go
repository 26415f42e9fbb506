package router

import (
	"adboard/internal/delivery/handler"
	"adboard/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func SetupAdRoutes(adRouter *chi.Mux, adHandler *handler.AdHandler, handlerMetrics *metrics.HandlerMetrics, allowedOrigins []string) {
	adRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	adRouter.Use(handlerMetrics.Middleware)

	adRouter.Get("/healthz", adHandler.Health)

	adRouter.Get("/board", adHandler.GetBoard)
	adRouter.Put("/board/query", adHandler.SetQuery)
	adRouter.Put("/board/page", adHandler.SetPage)
	adRouter.Post("/board/page/next", adHandler.NextPage)
	adRouter.Post("/board/page/prev", adHandler.PrevPage)

	adRouter.Get("/ads/{id}", adHandler.GetAd)
	adRouter.Delete("/ads/{id}", adHandler.DeleteAd)

	adRouter.Route("/editors/new", func(r chi.Router) {
		r.Use(adHandler.CreatorEditor)
		editorRoutes(r, adHandler)
		r.Post("/paste", adHandler.Paste)
	})

	adRouter.Route("/ads/{id}/editor", func(r chi.Router) {
		r.Use(adHandler.AdEditor)
		editorRoutes(r, adHandler)
	})
}

func editorRoutes(r chi.Router, h *handler.AdHandler) {
	r.Get("/", h.GetEditor)
	r.Post("/open", h.OpenEditor)
	r.Put("/draft", h.UpdateDraft)
	r.Post("/image", h.DropImage)
	r.Post("/confirm", h.ConfirmEditor)
	r.Post("/cancel", h.CancelEditor)
}
