package history

import (
	"fmt"

	"github.com/vociferous/vociferous/internal/config"
)

// Open resolves cfg.Backend to a concrete Store, or nil when the backend is
// "none" (history disabled).
func Open(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case config.HistoryBackendNone, "":
		return nil, nil
	case config.HistoryBackendXML:
		return NewXMLStore(cfg.Path)
	case config.HistoryBackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
