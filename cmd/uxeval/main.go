// Command uxeval starts the UX evaluation API server.
// Usage: go run ./cmd/uxeval [addr]
// Default addr: :8080
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dubey22rohit/UX-Evaluator/internal/app"
	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
	"github.com/dubey22rohit/UX-Evaluator/internal/server"
)

func main() {
	appCfg := app.DefaultConfig()
	if len(os.Args) > 1 {
		appCfg.ListenAddr = os.Args[1]
	}
	if root := os.Getenv("UXEVAL_STORAGE_ROOT"); root != "" {
		appCfg.StorageRoot = root
	}

	logger := logging.NewStdoutLogger("uxeval")

	srv, err := server.NewServer(server.Config{
		ListenAddr: appCfg.ListenAddr,
		AppConfig:  appCfg,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	httpSrv := srv.HTTPServer()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		srv.Close()
		httpSrv.Close()
	}()

	logger.Info("listening", logging.Field{Key: "addr", Value: appCfg.ListenAddr})
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Info("server stopped", logging.Field{Key: "reason", Value: err.Error()})
	}
}
