package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/calm-violet-crane/aiops-analyzer/internal/engine"
)

// watchConfig watches the config file and pushes threshold changes into
// the engine without a restart. Only the detector thresholds reload;
// addresses and intervals still require a restart.
func watchConfig(ctx context.Context, path string, eng *engine.Analyzer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and config managers
	// replace files via rename, which drops a file-level watch.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	log.Printf("watching %s for threshold changes", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadConfig(path)
			if err != nil {
				log.Printf("config reload skipped: %v", err)
				continue
			}
			eng.SetThresholds(cfg.Analysis.ErrorThreshold, cfg.Analysis.ResponseTimeThresholdMs)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}
