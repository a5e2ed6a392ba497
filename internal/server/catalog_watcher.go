package server

import (
	"context"
	"time"

	"resumatch/internal/catalog"
	"resumatch/internal/errors"
)

// catalogReloadTimeout bounds one watcher-triggered reload.
const catalogReloadTimeout = 30 * time.Second

// NewCatalogWatcher watches the files behind a file-backed catalog and
// reloads store when they change. It returns nil for other sources.
func NewCatalogWatcher(store *catalog.Store, debounce time.Duration, logger *errors.Logger) *FileWatcher {
	fileSource, ok := store.Source().(*catalog.FileSource)
	if !ok {
		return nil
	}

	reload := func() {
		ctx, cancel := context.WithTimeout(context.Background(), catalogReloadTimeout)
		defer cancel()
		// the store logs and counts failures itself
		_ = store.Reload(ctx)
	}

	return NewFileWatcher("catalog", fileSource.Paths(), debounce, reload, logger)
}
