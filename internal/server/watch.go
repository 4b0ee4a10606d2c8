package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"factline/internal/store"
	"factline/internal/timeline"
)

// FigureFile is the on-disk format editors drop into the content directory:
// one JSON file per figure.
type FigureFile struct {
	FigureID             string                   `json:"figure_id"`
	Name                 string                   `json:"name"`
	MainOverview         string                   `json:"main_overview"`
	CategoryDescriptions map[string]string        `json:"category_descriptions"`
	Timeline             timeline.CuratedTimeline `json:"timeline"`
}

// Watcher loads curated figure content from a directory into the store and
// keeps it in sync, broadcasting an update for every changed figure.
type Watcher struct {
	log   *zap.Logger
	store *store.Store
	hub   *Hub
	dir   string
	fsw   *fsnotify.Watcher
}

func NewWatcher(log *zap.Logger, st *store.Store, hub *Hub, dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{log: log, store: st, hub: hub, dir: dir, fsw: fsw}, nil
}

// LoadAll ingests every figure file currently in the directory.
func (w *Watcher) LoadAll() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading content dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if _, err := w.loadFile(filepath.Join(w.dir, e.Name())); err != nil {
			w.log.Warn("skipping figure file", zap.String("file", e.Name()), zap.Error(err))
		}
	}
	return nil
}

// Run processes filesystem events until the watcher is closed.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			figureID, err := w.loadFile(ev.Name)
			if err != nil {
				w.log.Warn("reloading figure file", zap.String("file", ev.Name), zap.Error(err))
				continue
			}
			w.log.Info("figure content updated", zap.String("figure", figureID))
			w.hub.Broadcast(figureID)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) loadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var f FigureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if f.FigureID == "" {
		return "", fmt.Errorf("%s: figure_id is required", filepath.Base(path))
	}

	if err := w.store.UpsertFigure(f.FigureID, f.Name, f.MainOverview); err != nil {
		return "", fmt.Errorf("storing figure: %w", err)
	}
	if len(f.CategoryDescriptions) > 0 {
		if err := w.store.SetCategoryDescriptions(f.FigureID, f.CategoryDescriptions); err != nil {
			return "", fmt.Errorf("storing descriptions: %w", err)
		}
	}
	if f.Timeline != nil {
		if err := w.store.UpsertTimeline(f.FigureID, f.Timeline); err != nil {
			return "", fmt.Errorf("storing timeline: %w", err)
		}
	}
	return f.FigureID, nil
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
