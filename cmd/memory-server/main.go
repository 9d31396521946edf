// Command memory-server runs the continuity memory core's HTTP surface
// (spec §6): ingestion, retrieval, and the lifecycle/management passes,
// fronted by internal/httpapi's five JSON endpoints.
//
// Grounded on cmd/memento-web/main.go: flag parsing, config load, storage
// init, engine start, signal-driven graceful shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/continuity/internal/config"
	"github.com/scrypster/continuity/internal/connections"
	"github.com/scrypster/continuity/internal/embedder"
	"github.com/scrypster/continuity/internal/engine"
	"github.com/scrypster/continuity/internal/httpapi"
	"github.com/scrypster/continuity/internal/lifecycle"
	"github.com/scrypster/continuity/internal/migration"
	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/internal/store/filestore"
	"github.com/scrypster/continuity/internal/store/postgres"
)

func main() {
	embedderURL := flag.String("embedder-url", "", "Base URL of the remote embedding server (overrides MEMORY_API_URL)")
	flag.Parse()

	cfg := config.LoadConfig()

	root := cfg.Storage.CentralPath
	if cfg.IsLocalMode() {
		root = "./.memory"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		log.Fatalf("memory-server: create storage root %s: %v", root, err)
	}

	var newIndex store.IndexFactory
	if cfg.Storage.Backend == "postgres" {
		factory, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("memory-server: open postgres index: %v", err)
		}
		newIndex = factory
	} else {
		newIndex = filestore.New
	}
	st := store.NewStore(root, newIndex)

	embed := buildEmbedder(cfg, *embedderURL)

	// Bring any pre-existing corpus current before the engine starts
	// reading from it (spec §4.5: migration is idempotent, safe to run on
	// every startup).
	mig := migration.New(embed, nil)
	reports, err := mig.MigrateAll(context.Background(), root)
	if err != nil {
		log.Printf("memory-server: migration: %v", err)
	}
	for _, r := range reports {
		if r.Scanned > 0 {
			log.Printf("memory-server: migrated project %s: scanned=%d upgraded=%d reembedded=%d errors=%d",
				r.ProjectID, r.Scanned, r.Upgraded, r.Reembedded, len(r.Errors))
		}
	}

	mgr := lifecycle.NewManager(st)

	// Curator and ManagerAgent are out-of-process LLM agents specified only
	// by interface (spec §1's explicit non-goal); this binary ships with
	// neither wired in, so curation/management requests fail closed until
	// an adapter process supplies them.
	var curator connections.Curator
	var managerAgent connections.ManagerAgent

	engCfg := engine.Config{Dispatcher: connections.DispatcherConfig{
		RequestsPerSecond: cfg.Dispatcher.RequestsPerSecond,
		Burst:             cfg.Dispatcher.Burst,
		HardTimeout:       cfg.Dispatcher.HardTimeout,
	}}
	eng := engine.New(st, embed, mgr, curator, managerAgent, nil, engCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("memory-server: start engine: %v", err)
	}

	if cfg.Features.EnableHTTP {
		srv := httpapi.New(eng, st, cfg)
		addr, err := srv.Start(ctx)
		if err != nil {
			log.Fatalf("memory-server: start http server: %v", err)
		}
		log.Printf("continuity memory core listening at http://%s", addr)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("memory-server: shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := eng.Shutdown(shutdownCtx); err != nil {
		log.Printf("memory-server: engine shutdown: %v", err)
	}

	cancel()
	time.Sleep(500 * time.Millisecond)
}

// buildEmbedder picks Remote when an embedder URL is configured, Local
// otherwise (spec §1/§2: the core consumes embedding as an opaque 384-dim
// vector dependency; Local is the zero-config default).
func buildEmbedder(cfg *config.Config, overrideURL string) embedder.Embedder {
	baseURL := overrideURL
	if baseURL == "" {
		baseURL = cfg.LLM.APIURL
	}
	if baseURL == "" {
		return embedder.NewLocal()
	}
	return embedder.NewRemote(embedder.RemoteConfig{BaseURL: baseURL})
}
