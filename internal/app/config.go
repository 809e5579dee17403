package app

import (
	"github.com/dubey22rohit/UX-Evaluator/internal/crawler"
)

// Config contains the runtime configuration composed at the entrypoint.
type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// StorageRoot is the base path for the SQLite DB and screenshot blobs.
	StorageRoot string

	// CrawlerCfg bounds evaluation crawls.
	CrawlerCfg crawler.Config

	// DarkMode is the UI theme preference handed to clients. Injected here
	// once at the composition root instead of living as mutable global state.
	DarkMode bool
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:  ":8080",
		StorageRoot: "~/.config/ux-evaluator",
		CrawlerCfg:  crawler.DefaultConfig(),
		DarkMode:    true,
	}
}
