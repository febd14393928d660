package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/yptox/Twitter-2/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Twitter-2 API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())
	r.Get("/ws/events", handleWSEvents(logger, deps.Events))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", handleState(deps.Host))
		r.Get("/events", handleEvents(deps.Events))

		r.Post("/posts/{postID}/{kind}", handleInteract(logger, deps.Host))
		r.Post("/unlocks/{kind}", handleUnlockInteraction(logger, deps.Host))
		r.Post("/bots/{kind}/unlock", handleUnlockBot(logger, deps.Host))
		r.Post("/bots/{kind}/toggle", handleToggleBot(logger, deps.Host))
		r.Post("/block", handleBlock(logger, deps.Host))
		r.Post("/reset", handleReset(logger, deps.Host))

		r.Route("/prefs", func(r chi.Router) {
			r.Get("/theme", handleGetTheme(deps.Prefs))
			r.Put("/theme", handlePutTheme(deps.Prefs))
			r.Get("/welcome", handleGetWelcome(deps.Prefs))
			r.Post("/welcome", handleDismissWelcome(deps.Prefs))
		})
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
