package auth

import (
	"os"
	"time"

	"igharvest/pkg/session"
)

// EnvironmentStore reads a session from environment variables.
// IGHARVEST_COOKIES holds a full Cookie header; IGHARVEST_SESSION_ID and
// IGHARVEST_CSRF_TOKEN are used when it is unset.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(s *Session) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) cookies() session.CredentialBag {
	if header := os.Getenv("IGHARVEST_COOKIES"); header != "" {
		if bag, err := session.ParseHeader(header); err == nil {
			return bag
		}
	}

	sessionID := os.Getenv("IGHARVEST_SESSION_ID")
	if sessionID == "" {
		return nil
	}
	bag := session.CredentialBag{"sessionid": sessionID}
	if token := os.Getenv("IGHARVEST_CSRF_TOKEN"); token != "" {
		bag["csrftoken"] = token
	}
	return bag
}

// Retrieve returns the environment session under the requested account
// name, or "default" when account is empty
func (e *EnvironmentStore) Retrieve(account string) (*Session, error) {
	bag := e.cookies()
	if bag.Get("sessionid") == "" {
		return nil, ErrSessionNotFound
	}

	if account == "" {
		account = "default"
	}
	return &Session{
		Account:      account,
		Cookies:      bag,
		LastModified: time.Now(),
	}, nil
}

// List returns a single session if the environment carries one
func (e *EnvironmentStore) List() ([]*Session, error) {
	s, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{s}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(account string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(account string) bool {
	return e.cookies().Get("sessionid") != ""
}
