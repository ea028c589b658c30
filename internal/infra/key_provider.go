package infra

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// sqlcipherRawKeySize is the length of a raw (non-passphrase) SQLCipher
// key; anything else would be run through PBKDF2 as a passphrase.
const sqlcipherRawKeySize = 32

// ErrListKeyMissing means the list database exists but its key file does
// not. A fresh key could never open it, so none is generated.
var ErrListKeyMissing = errors.New("list database exists but its key is missing")

// ListKeyFile holds the raw key of one encrypted list database in a
// sibling "<db>.key" file, hex encoded, readable by the owner only.
type ListKeyFile struct {
	dbPath  string
	keyPath string
}

// NewListKeyFile binds a key file to the database at dbPath.
func NewListKeyFile(dbPath string) *ListKeyFile {
	return &ListKeyFile{dbPath: dbPath, keyPath: dbPath + ".key"}
}

// Path returns the key file location.
func (f *ListKeyFile) Path() string {
	return f.keyPath
}

func (f *ListKeyFile) GetKey() ([]byte, error) {
	data, err := os.ReadFile(f.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read list key: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("list key %s is not hex: %w", f.keyPath, err)
	}
	if err := checkRawKey(key); err != nil {
		return nil, fmt.Errorf("list key %s: %w", f.keyPath, err)
	}
	return key, nil
}

// StoreKey writes key with 0600 permissions, creating the directory if needed.
func (f *ListKeyFile) StoreKey(key []byte) error {
	if err := checkRawKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.keyPath), 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(f.keyPath, []byte(hex.EncodeToString(key)+"\n"), 0600); err != nil {
		return fmt.Errorf("write list key: %w", err)
	}
	return nil
}

func (f *ListKeyFile) KeyExists() bool {
	_, err := os.Stat(f.keyPath)
	return err == nil
}

// Ensure returns the database key, generating one only while the database
// does not exist yet.
func (f *ListKeyFile) Ensure() ([]byte, error) {
	if f.KeyExists() {
		return f.GetKey()
	}
	if _, err := os.Stat(f.dbPath); err == nil {
		return nil, fmt.Errorf("%s: %w", f.dbPath, ErrListKeyMissing)
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := f.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateKey returns a random raw SQLCipher key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, sqlcipherRawKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

func checkRawKey(key []byte) error {
	if len(key) != sqlcipherRawKeySize {
		return fmt.Errorf("invalid key size: got %d, want %d", len(key), sqlcipherRawKeySize)
	}
	return nil
}

// rawKeyPragma renders key in SQLCipher's raw key syntax, x'<64 hex>'.
func rawKeyPragma(key []byte) (string, error) {
	if err := checkRawKey(key); err != nil {
		return "", err
	}
	return "x'" + hex.EncodeToString(key) + "'", nil
}

var _ domain.KeyProvider = (*ListKeyFile)(nil)
