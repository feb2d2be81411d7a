package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"igharvest/pkg/session"
)

// Session is a stored browser session for one Instagram account
type Session struct {
	Account      string                `json:"account"`
	Cookies      session.CredentialBag `json:"cookies"`
	LastModified time.Time             `json:"last_modified"`
}

// SessionStore is the interface for storing and retrieving sessions
type SessionStore interface {
	// Store saves the session for its account
	Store(s *Session) error

	// Retrieve gets the session of a specific account
	Retrieve(account string) (*Session, error)

	// List returns all stored sessions
	List() ([]*Session, error)

	// Delete removes the session of a specific account
	Delete(account string) error

	// Exists checks if a session exists for an account
	Exists(account string) bool
}

// Manager handles session storage with fallback mechanisms
type Manager struct {
	stores []SessionStore
}

// NewManager creates a manager backed by the system keychain when it is
// reachable, an encrypted file in configDir, and the environment.
// An empty configDir selects ConfigDir().
func NewManager(configDir string) (*Manager, error) {
	var stores []SessionStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	if configDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		configDir = dir
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "sessions.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores, tried in order
func NewManagerWithStores(stores ...SessionStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the session using the first store that accepts it
func (m *Manager) Store(s *Session) error {
	if s == nil || s.Account == "" {
		return errors.New("account is required")
	}
	if s.Cookies.Get("sessionid") == "" {
		return fmt.Errorf("%w: sessionid cookie is required", ErrInvalidSession)
	}

	s.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(s)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return errors.New("no available session stores")
}

// SaveSession stores bag under account
func (m *Manager) SaveSession(account string, bag session.CredentialBag) error {
	return m.Store(&Session{Account: account, Cookies: bag.Clone()})
}

// Retrieve gets the session from the first store that has it
func (m *Manager) Retrieve(account string) (*Session, error) {
	for _, store := range m.stores {
		if s, err := store.Retrieve(account); err == nil && s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, account)
}

// LoadSession returns the cookie bag stored for account
func (m *Manager) LoadSession(account string) (session.CredentialBag, error) {
	s, err := m.Retrieve(account)
	if err != nil {
		return nil, err
	}
	return s.Cookies.Clone(), nil
}

// List returns the newest session of every account across all stores,
// sorted by account
func (m *Manager) List() ([]*Session, error) {
	byAccount := make(map[string]*Session)

	for _, store := range m.stores {
		sessions, err := store.List()
		if err != nil {
			continue
		}
		for _, s := range sessions {
			if existing, ok := byAccount[s.Account]; !ok || s.LastModified.After(existing.LastModified) {
				byAccount[s.Account] = s
			}
		}
	}

	result := make([]*Session, 0, len(byAccount))
	for _, s := range byAccount {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Account < result[j].Account })

	return result, nil
}

// Delete removes the session from all stores
func (m *Manager) Delete(account string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(account); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrSessionNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrSessionNotFound, account)
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igharvest")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igharvest")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igharvest")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igharvest")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy of s with every cookie value masked
func Sanitize(s *Session) *Session {
	if s == nil {
		return nil
	}

	masked := make(session.CredentialBag, len(s.Cookies))
	for name, value := range s.Cookies {
		masked[name] = maskString(value)
	}
	return &Session{
		Account:      s.Account,
		Cookies:      masked,
		LastModified: s.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
