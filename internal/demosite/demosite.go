// Package demosite serves a small website with deliberate usability
// defects. Pointing the evaluator at it exercises every analyzer check:
// images without alt text, unlabeled inputs, vague link text, missing
// page titles, missing viewport meta and broken heading structure.
package demosite

import (
	"fmt"
	"net/http"
)

// DemoSite is a simple HTTP server for demonstrating evaluation capabilities.
type DemoSite struct {
	cfg   Config
	pages map[string]Page
}

// NewDemoSite creates a new demo site instance.
func NewDemoSite(cfg Config) *DemoSite {
	pages := GetAllPages()
	pageMap := make(map[string]Page, len(pages))
	for _, p := range pages {
		pageMap[p.Path] = p
	}
	return &DemoSite{
		cfg:   cfg,
		pages: pageMap,
	}
}

// Start starts the demo site.
func (s *DemoSite) Start() error {
	mux := http.NewServeMux()

	for path := range s.pages {
		p := path // capture for closure
		mux.HandleFunc(p, s.pageHandler(p))
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo site starting on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, mux)
}

// pageHandler returns a handler for a specific page path.
func (s *DemoSite) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := s.pages[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page.HTML))
	}
}
