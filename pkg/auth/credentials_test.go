package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"igharvest/pkg/session"
)

func TestManagerSaveAndLoadSession(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManagerWithStores(store)

	bag := session.CredentialBag{"sessionid": "test_session_id_12345", "csrftoken": "tok"}
	require.NoError(t, manager.SaveSession("me", bag))
	assert.Equal(t, 1, store.Count())

	// the stored copy is independent of the caller's bag
	bag["sessionid"] = "changed"

	loaded, err := manager.LoadSession("me")
	require.NoError(t, err)
	assert.Equal(t, "test_session_id_12345", loaded.Get("sessionid"))
	assert.Equal(t, "tok", loaded.Get("csrftoken"))

	s, err := manager.Retrieve("me")
	require.NoError(t, err)
	assert.False(t, s.LastModified.IsZero())

	sessions, err := manager.List()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "me", sessions[0].Account)

	require.NoError(t, manager.Delete("me"))
	_, err = manager.LoadSession("me")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, manager.Delete("me"), ErrSessionNotFound)
}

func TestManagerRejectsSessionWithoutSessionID(t *testing.T) {
	manager := NewManagerWithStores(NewMemoryStore())

	err := manager.SaveSession("me", session.CredentialBag{"csrftoken": "tok"})
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Error(t, manager.SaveSession("", session.CredentialBag{"sessionid": "x"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreError = errors.New("keychain locked")
	fallback := NewMemoryStore()
	manager := NewManagerWithStores(broken, fallback)

	require.NoError(t, manager.SaveSession("me", session.CredentialBag{"sessionid": "abc"}))
	assert.Equal(t, 0, broken.Count())
	assert.True(t, fallback.Exists("me"))

	fallback.StoreError = errors.New("disk full")
	err := manager.SaveSession("other", session.CredentialBag{"sessionid": "abc"})
	assert.ErrorContains(t, err, "disk full")
}

func TestSanitize(t *testing.T) {
	s := &Session{Account: "me", Cookies: session.CredentialBag{"sessionid": "1234567890abcdef", "ds_user_id": "42"}}
	masked := Sanitize(s)

	assert.Equal(t, "me", masked.Account)
	assert.Equal(t, "1234...cdef", masked.Cookies.Get("sessionid"))
	assert.Equal(t, "********", masked.Cookies.Get("ds_user_id"))
	assert.Equal(t, "1234567890abcdef", s.Cookies.Get("sessionid"))
	assert.Nil(t, Sanitize(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("IGHARVEST_PASSPHRASE", "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "sessions.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Session{Account: "b", Cookies: session.CredentialBag{"sessionid": "encrypted_session"}}))
	require.NoError(t, store.Store(&Session{Account: "a", Cookies: session.CredentialBag{"sessionid": "other", "csrftoken": "encrypted_csrf"}}))

	got, err := store.Retrieve("b")
	require.NoError(t, err)
	assert.Equal(t, "encrypted_session", got.Cookies.Get("sessionid"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("encrypted_session")))
	assert.False(t, bytes.Contains(content, []byte("encrypted_csrf")))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Account)

	// a different passphrase cannot read the file
	t.Setenv("IGHARVEST_PASSPHRASE", "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("b")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))

	t.Setenv("IGHARVEST_PASSPHRASE", "test_passphrase_123")
	require.NoError(t, store.Delete("a"))
	require.NoError(t, store.Delete("b"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, store.Delete("b"), ErrSessionNotFound)
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv("IGHARVEST_PASSPHRASE", "")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "sessions.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(&Session{Account: "me", Cookies: session.CredentialBag{"sessionid": "x"}}))

	info, err := os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "sessions.enc"))
	require.NoError(t, err)
	assert.True(t, reopened.Exists("me"))
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("IGHARVEST_COOKIES", "")
	t.Setenv("IGHARVEST_SESSION_ID", "env_session")
	t.Setenv("IGHARVEST_CSRF_TOKEN", "env_csrf")

	store := NewEnvironmentStore()
	s, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "default", s.Account)
	assert.Equal(t, session.CredentialBag{"sessionid": "env_session", "csrftoken": "env_csrf"}, s.Cookies)
	assert.Equal(t, ErrStoreUnavailable, store.Store(&Session{}))
	assert.Equal(t, ErrStoreUnavailable, store.Delete("default"))

	t.Setenv("IGHARVEST_COOKIES", "sessionid=from_header; ds_user_id=42")
	s, err = store.Retrieve("me")
	require.NoError(t, err)
	assert.Equal(t, "me", s.Account)
	assert.Equal(t, "42", s.Cookies.Get("ds_user_id"))

	t.Setenv("IGHARVEST_COOKIES", "")
	t.Setenv("IGHARVEST_SESSION_ID", "")
	_, err = store.Retrieve("")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Session{Account: "me", Cookies: session.CredentialBag{"sessionid": "k1"}}))
	require.NoError(t, store.Store(&Session{Account: "alt", Cookies: session.CredentialBag{"sessionid": "k2"}}))
	assert.True(t, store.Exists("me"))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alt", list[0].Account)

	require.NoError(t, store.Delete("alt"))
	assert.ErrorIs(t, store.Delete("alt"), ErrSessionNotFound)
	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "k1", list[0].Cookies.Get("sessionid"))
}

func TestMemoryStoreErrorInjection(t *testing.T) {
	store := NewMemoryStore()
	store.ListError = errors.New("injected error")
	_, err := store.List()
	assert.EqualError(t, err, "injected error")

	_, err = store.Retrieve("")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestShowCookieImportGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowCookieImportGuide(&buf)
	assert.Contains(t, buf.String(), "sessionid")
	buf.Reset()
	ShowQuickImportGuide(&buf)
	assert.Contains(t, buf.String(), "Cookie")
}
