package main

// #region imports
import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sentinelforge/go-middleware/internal/adapter"
	"github.com/sentinelforge/go-middleware/internal/bus"
	"github.com/sentinelforge/go-middleware/internal/glyph"
	"github.com/sentinelforge/go-middleware/internal/lens"
	"github.com/sentinelforge/go-middleware/internal/orchestrator"
	"github.com/sentinelforge/go-middleware/internal/server"
	"github.com/sentinelforge/go-middleware/internal/state"
)

// #endregion

const version = "0.1.0"

// #region main
func main() {
	dbPath := envOr("FORGE_DB", "sentinel_forge.db")
	addr := envOr("FORGE_ADDR", ":8088")
	packPath := envOr("FORGE_GLYPH_PACK", "glyphs.json")
	aiEndpoint := envOr("FORGE_AI_ENDPOINT", "")
	aiModel := envOr("FORGE_AI_MODEL", "gpt-4")
	aiKey := envOr("FORGE_AI_KEY", "")

	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	store, err := state.NewStore(dbPath)
	if err != nil {
		logger.Fatalw("open store failed", "path", dbPath, "err", err)
	}
	defer store.Close()

	matcher := glyph.NewMatcher(logger)
	if err := matcher.LoadFile(packPath); err != nil {
		logger.Fatalw("load shape pack failed", "path", packPath, "err", err)
	}

	var model adapter.Adapter
	if aiEndpoint != "" {
		model = adapter.NewHTTPAdapter(aiEndpoint, aiModel, aiKey)
		logger.Infow("using HTTP adapter", "endpoint", aiEndpoint, "model", aiModel)
	} else {
		model = adapter.NewMock()
		logger.Infow("using mock adapter")
	}

	events := bus.New(logger)
	orch := orchestrator.New(matcher, glyph.NewParser(), lens.NewSet(), model, store, events, logger)
	if err := orch.Restore(); err != nil {
		logger.Fatalw("snapshot restore failed", "err", err)
	}

	watcher := watchPack(logger, matcher, packPath)
	if watcher != nil {
		defer watcher.Close()
	}

	srv := server.New(orch, events, version, logger).Run(addr)

	go func() {
		logger.Infow("listening", "addr", addr, "db", dbPath, "pack", packPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("shutdown incomplete", "err", err)
	}
}

// #endregion main

// #region pack-watch

// watchPack reloads the shape table when the pack file changes. Watches the
// parent directory so editors that replace the file (rename-over) still
// trigger. Returns nil when the watcher cannot start; hot reload is optional.
func watchPack(logger *zap.SugaredLogger, matcher *glyph.Matcher, packPath string) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnw("pack watcher unavailable", "err", err)
		return nil
	}

	dir := filepath.Dir(packPath)
	if err := watcher.Add(dir); err != nil {
		logger.Warnw("pack watch failed", "dir", dir, "err", err)
		watcher.Close()
		return nil
	}

	target := filepath.Clean(packPath)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				if err := matcher.LoadFile(packPath); err != nil {
					logger.Errorw("pack reload failed", "path", packPath, "err", err)
					continue
				}
				logger.Infow("pack reloaded", "path", packPath)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("pack watcher error", "err", err)
			}
		}
	}()
	return watcher
}

// #endregion pack-watch

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
