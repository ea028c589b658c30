package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

const (
	listsDBName = "lists.db"

	listAllow = "allow"
	listKill  = "kill"
)

// EncryptedListStore implements domain.ListStore using a SQLCipher
// encrypted SQLite database.
type EncryptedListStore struct {
	db     *sql.DB
	dbPath string
}

// ListsDBPath returns where the encrypted lists database lives in dataDir.
func ListsDBPath(dataDir string) string {
	return filepath.Join(dataDir, listsDBName)
}

// NewEncryptedListStore opens (or creates) the encrypted lists database.
// key is a raw SQLCipher key, applied via PRAGMA key without derivation.
func NewEncryptedListStore(dataDir string, key []byte) (*EncryptedListStore, error) {
	pragma, err := rawKeyPragma(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := ListsDBPath(dataDir)
	dsn := fmt.Sprintf("%s?_pragma_key=%s&_pragma_cipher_page_size=4096", dbPath, pragma)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Verify encryption works by running a query
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	store := &EncryptedListStore{db: db, dbPath: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *EncryptedListStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS list_entry (
		list TEXT NOT NULL,
		name TEXT NOT NULL,
		added_at INTEGER NOT NULL,
		PRIMARY KEY (list, name)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns every stored entry. An empty database is an empty state.
func (s *EncryptedListStore) Load() (domain.ListState, error) {
	var state domain.ListState

	rows, err := s.db.Query(`SELECT list, name FROM list_entry ORDER BY name`)
	if err != nil {
		return domain.ListState{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var list, name string
		if err := rows.Scan(&list, &name); err != nil {
			return domain.ListState{}, err
		}
		switch list {
		case listAllow:
			state.Allow = append(state.Allow, name)
		case listKill:
			state.Kill = append(state.Kill, name)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.ListState{}, err
	}

	var showAll string
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'show_all'`).Scan(&showAll)
	if err != nil && err != sql.ErrNoRows {
		return domain.ListState{}, err
	}
	state.ShowAll = showAll == "1"

	return state, nil
}

// Save replaces the stored state in one transaction.
func (s *EncryptedListStore) Save(state domain.ListState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM list_entry`); err != nil {
		return err
	}

	now := time.Now().Unix()
	insert := func(list string, names []string) error {
		for _, name := range names {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO list_entry (list, name, added_at) VALUES (?, ?, ?)`,
				list, name, now); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(listAllow, state.Allow); err != nil {
		return err
	}
	if err := insert(listKill, state.Kill); err != nil {
		return err
	}

	showAll := "0"
	if state.ShowAll {
		showAll = "1"
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('show_all', ?)`, showAll); err != nil {
		return err
	}

	return tx.Commit()
}

// Path returns the database file path.
func (s *EncryptedListStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *EncryptedListStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure EncryptedListStore implements domain.ListStore.
var _ domain.ListStore = (*EncryptedListStore)(nil)
