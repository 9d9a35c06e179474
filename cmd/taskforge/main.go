// Package main provides the main entry point for the taskforge server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskforge/taskforge/api"
	"github.com/taskforge/taskforge/pkg/accounts"
	"github.com/taskforge/taskforge/pkg/config"
	"github.com/taskforge/taskforge/pkg/credentials"
	"github.com/taskforge/taskforge/pkg/logger"
	"github.com/taskforge/taskforge/pkg/store"
	"github.com/taskforge/taskforge/pkg/tasks"
	"github.com/taskforge/taskforge/pkg/tokens"
)

// Version information (set by build process)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Show version information")
)

// tokenPurgeInterval is how often expired session records are swept.
const tokenPurgeInterval = time.Hour

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("taskforge %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewConsoleLogger(cfg.Log.Level)

	repo, err := store.NewRepository(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to open store", err)
	}
	defer repo.Close()

	credentialStore := credentials.NewStore(cfg.Auth.BcryptCost)
	tokenService := tokens.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, repo)
	accountManager := accounts.NewManager(repo, credentialStore, tokenService)
	taskEngine := tasks.NewEngine(repo)

	server := api.NewServer(cfg, log, repo, accountManager, taskEngine, tokenService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeExpiredTokens(ctx, tokenService, log)

	if err := server.Start(ctx); err != nil {
		log.Fatal("Server shutdown failed", err)
	}

	log.Info("Server stopped")
}

// purgeExpiredTokens periodically sweeps expired session records so the
// token set does not grow without bound.
func purgeExpiredTokens(ctx context.Context, tokenService *tokens.Service, log logger.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := tokenService.PurgeExpired(ctx); err != nil {
				log.Warn("Failed to purge expired tokens", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
