package exportrouter

import (
	"testing"

	"github.com/goliatone/go-export/export"
	"github.com/goliatone/go-router"
)

// fakeRegistrar records every route registered by Handler.RegisterRoutes,
// without needing a full router.Context implementation.
type fakeRegistrar struct {
	gets  []string
	posts []string
}

func (f *fakeRegistrar) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	f.gets = append(f.gets, path)
	return nil
}

func (f *fakeRegistrar) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	f.posts = append(f.posts, path)
	return nil
}

func TestRegisterRoutesCoversEveryRoute(t *testing.T) {
	registry := export.NewRegistry(export.DefaultRegistryConfig(), export.NopLogger{})
	gate := export.NewConcurrencyGate(10, 10)
	coordinator := export.NewCoordinator(nil, registry, gate, export.DefaultCoordinatorConfig(), export.NopLogger{})

	h := NewHandler(Config{Coordinator: coordinator, Registry: registry, Logger: export.NopLogger{}})

	reg := &fakeRegistrar{}
	h.RegisterRoutes(reg)

	wantGets := []string{
		"/export/:id/status",
		"/export/:id/download",
		"/export/:id/download/batch/:n",
		"/export/:id/download/zip",
		"/templates/:type",
		"/health",
		"/storage/info",
	}
	wantPosts := []string{
		"/export/:type",
		"/cleanup",
		"/cleanup/force",
	}

	if len(reg.gets) != len(wantGets) {
		t.Fatalf("expected %d GET routes, got %d: %v", len(wantGets), len(reg.gets), reg.gets)
	}
	for i, path := range wantGets {
		if reg.gets[i] != path {
			t.Errorf("GET route %d: expected %q, got %q", i, path, reg.gets[i])
		}
	}

	if len(reg.posts) != len(wantPosts) {
		t.Fatalf("expected %d POST routes, got %d: %v", len(wantPosts), len(reg.posts), reg.posts)
	}
	for i, path := range wantPosts {
		if reg.posts[i] != path {
			t.Errorf("POST route %d: expected %q, got %q", i, path, reg.posts[i])
		}
	}
}

func TestRegisterRoutesIgnoresIncompatibleRouter(t *testing.T) {
	registry := export.NewRegistry(export.DefaultRegistryConfig(), export.NopLogger{})
	gate := export.NewConcurrencyGate(10, 10)
	coordinator := export.NewCoordinator(nil, registry, gate, export.DefaultCoordinatorConfig(), export.NopLogger{})

	h := NewHandler(Config{Coordinator: coordinator, Registry: registry, Logger: export.NopLogger{}})

	// Passing something that isn't a routeRegistrar must be a silent no-op,
	// not a panic.
	h.RegisterRoutes("not a router")
}
