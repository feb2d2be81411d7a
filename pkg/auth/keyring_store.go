package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "igharvest"
	keyringPrefix  = "session_"
	// keyringIndex lists the stored accounts; the keychain APIs cannot enumerate
	keyringIndex = "accounts"
)

// KeyringStore implements SessionStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore returns a keychain store if the keychain answers
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

func (k *KeyringStore) Store(s *Session) error {
	if s == nil || s.Account == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+s.Account, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.updateIndex(func(accounts map[string]bool) { accounts[s.Account] = true })
}

func (k *KeyringStore) Retrieve(account string) (*Session, error) {
	if account == "" {
		return nil, ErrInvalidSession
	}

	data, err := keyring.Get(keyringService, keyringPrefix+account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// List returns the sessions named in the index
func (k *KeyringStore) List() ([]*Session, error) {
	accounts, err := k.index()
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(accounts))
	for _, account := range accounts {
		s, err := k.Retrieve(account)
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (k *KeyringStore) Delete(account string) error {
	if account == "" {
		return ErrInvalidSession
	}

	err := keyring.Delete(keyringService, keyringPrefix+account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateIndex(func(accounts map[string]bool) { delete(accounts, account) })
}

func (k *KeyringStore) Exists(account string) bool {
	if account == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+account)
	return err == nil
}

func (k *KeyringStore) index() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal([]byte(data), &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return accounts, nil
}

func (k *KeyringStore) updateIndex(update func(map[string]bool)) error {
	current, err := k.index()
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(current)+1)
	for _, a := range current {
		set[a] = true
	}
	update(set)

	accounts := make([]string, 0, len(set))
	for a := range set {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)

	data, err := json.Marshal(accounts)
	if err != nil {
		return err
	}
	if err := keyring.Set(keyringService, keyringIndex, string(data)); err != nil {
		return fmt.Errorf("failed to update keyring index: %w", err)
	}
	return nil
}
