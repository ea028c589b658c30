package infra

import (
	"fmt"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// List store backends selectable from config.
const (
	StoreBackendJSON      = "json"
	StoreBackendSQLCipher = "sqlcipher"
)

// OpenListStore opens the list store for backend under dir.
// The sqlcipher backend generates its key when it creates the database.
func OpenListStore(backend, dir string) (domain.ListStore, error) {
	switch backend {
	case "", StoreBackendJSON:
		return NewJSONListStore(dir), nil
	case StoreBackendSQLCipher:
		key, err := NewListKeyFile(ListsDBPath(dir)).Ensure()
		if err != nil {
			return nil, fmt.Errorf("list store key: %w", err)
		}
		return NewEncryptedListStore(dir, key)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
