// Package exportrouter adapts the transport-agnostic exportapi.Controller to
// github.com/goliatone/go-router, translating router.Context into the
// narrow exportapi.Request/Response ports.
package exportrouter

import (
	"github.com/goliatone/go-export/adapters/exportapi"
	"github.com/goliatone/go-router"
)

// Config configures the go-router adapter.
type Config = exportapi.Config

// Handler exposes the export engine's HTTP surface (spec §6.1) for go-router.
type Handler struct {
	controller *exportapi.Controller
}

// NewHandler creates a go-router handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: exportapi.NewController(cfg)}
}

// RegisterRoutes registers every spec §6.1 route on a compatible go-router
// router.
func (h *Handler) RegisterRoutes(router any) {
	r, ok := router.(routeRegistrar)
	if !ok {
		return
	}

	r.Post("/export/:type", h.wrap(h.controller.HandleCreate))
	r.Get("/export/:id/status", h.wrap(h.controller.HandleStatus))
	r.Get("/export/:id/download", h.wrap(h.controller.HandleDownload))
	r.Get("/export/:id/download/batch/:n", h.wrap(h.controller.HandleDownloadBatch))
	r.Get("/export/:id/download/zip", h.wrap(h.controller.HandleDownloadZip))
	r.Get("/templates/:type", h.wrap(h.controller.HandleTemplates))
	r.Get("/health", h.wrap(h.controller.HandleHealth))
	r.Post("/cleanup", h.wrap(h.controller.HandleCleanup))
	r.Post("/cleanup/force", h.wrap(h.controller.HandleCleanupForce))
	r.Get("/storage/info", h.wrap(h.controller.HandleStorageInfo))
}

type controllerFunc func(req exportapi.Request, res exportapi.Response)

func (h *Handler) wrap(fn controllerFunc) router.HandlerFunc {
	return func(c router.Context) error {
		if c == nil {
			return nil
		}
		fn(routerRequest{ctx: c}, routerResponse{ctx: c})
		return nil
	}
}

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}
