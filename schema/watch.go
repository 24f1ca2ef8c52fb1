package schema

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Snapshotter is an allowlist whose schema can change between calls.
// Callers that need consistent lookups read Current once and use the result.
type Snapshotter interface {
	Current() *Schema
}

// Holder serves the current schema and swaps it when the file changes.
// Lookups through the Holder itself always see the latest schema; callers
// pin one with Current.
type Holder struct {
	current atomic.Pointer[Schema]
}

var (
	_ Allowlist   = (*Holder)(nil)
	_ Snapshotter = (*Holder)(nil)
)

// NewHolder returns a Holder serving s.
func NewHolder(s *Schema) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Current returns the schema in use.
func (h *Holder) Current() *Schema { return h.current.Load() }

// Store replaces the schema in use.
func (h *Holder) Store(s *Schema) { h.current.Store(s) }

func (h *Holder) IsValidTable(name string) bool         { return h.Current().IsValidTable(name) }
func (h *Holder) IsValidColumn(table, name string) bool { return h.Current().IsValidColumn(table, name) }
func (h *Holder) Column(table, name string) (*Column, bool) {
	return h.Current().Column(table, name)
}
func (h *Holder) DefaultColumns(table string) []string { return h.Current().DefaultColumns(table) }
func (h *Holder) SoftDeleteColumn(table string) string { return h.Current().SoftDeleteColumn(table) }

const reloadDebounce = 250 * time.Millisecond

// Watch reloads path into h whenever it is written, until ctx is done. A
// file that fails to parse is logged and the previous schema stays in use.
func (h *Holder) Watch(ctx context.Context, fs afero.Fs, path string, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("schema: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schema: watch %s: %w", path, err)
	}
	// Editors replace files, so watch the directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("schema: watch %s: %w", path, err)
	}

	go func() {
		defer func() { _ = w.Close() }()
		timer := time.NewTimer(reloadDebounce)
		timer.Stop()
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				timer.Reset(reloadDebounce)
				fire = timer.C
			case <-fire:
				fire = nil
				s, err := Load(fs, abs)
				if err != nil {
					logger.Error("schema reload failed", "path", abs, "error", err)
					continue
				}
				h.Store(s)
				logger.Info("schema reloaded", "path", abs, "tables", len(s.Tables))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("schema watch error", "error", err)
			}
		}
	}()
	return nil
}
