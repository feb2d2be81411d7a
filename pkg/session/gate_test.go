package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igharvest/pkg/errors"
)

type scriptedURLs struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (s *scriptedURLs) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	url := s.urls[0]
	if len(s.urls) > 1 {
		s.urls = s.urls[1:]
	}
	return url, nil
}

func TestGateTransitions(t *testing.T) {
	g := NewGate()
	var waiting []string
	authed := 0
	g.OnAwaitingHuman = func(url string) { waiting = append(waiting, url) }
	g.OnAuthenticated = func() { authed++ }

	assert.Equal(t, NotAuthenticated, g.State())
	assert.Equal(t, AwaitingHuman, g.Observe("https://www.instagram.com/accounts/login/?next=/explore/"))
	// still on the login page: no second signal
	assert.Equal(t, AwaitingHuman, g.Observe("https://www.instagram.com/accounts/login/two_factor"))
	assert.Equal(t, Authenticated, g.Observe("https://www.instagram.com/explore/tags/go/"))

	assert.Len(t, waiting, 1)
	assert.Equal(t, 1, authed)
}

func TestGateStraightToAuthenticated(t *testing.T) {
	g := NewGate()
	g.OnAwaitingHuman = func(string) { t.Fatal("unexpected login signal") }
	assert.Equal(t, Authenticated, g.Observe("https://www.instagram.com/"))
}

func TestAuthenticatedGateSkipsWaiting(t *testing.T) {
	g := NewAuthenticatedGate()
	assert.Equal(t, Authenticated, g.State())
	require.NoError(t, g.WaitForLogin(context.Background(), &scriptedURLs{urls: []string{"https://www.instagram.com/"}}, time.Millisecond))
}

func TestWaitForLoginPollsUntilAuthenticated(t *testing.T) {
	src := &scriptedURLs{urls: []string{
		"https://www.instagram.com/accounts/login/",
		"https://www.instagram.com/accounts/login/",
		"https://www.instagram.com/explore/tags/go/",
	}}
	signals := 0
	g := NewGate()
	g.OnAwaitingHuman = func(string) { signals++ }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, g.WaitForLogin(ctx, src, time.Millisecond))
	assert.Equal(t, Authenticated, g.State())
	assert.Equal(t, 1, signals)
}

func TestWaitForLoginTimesOut(t *testing.T) {
	src := &scriptedURLs{urls: []string{"https://www.instagram.com/accounts/login/"}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewGate().WaitForLogin(ctx, src, time.Millisecond)
	assert.ErrorIs(t, err, errs.ErrLoginTimeout)
}

func TestWaitForLoginCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewGate().WaitForLogin(ctx, &scriptedURLs{urls: []string{"https://www.instagram.com/accounts/login/"}}, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForLoginSourceError(t *testing.T) {
	boom := errors.New("target closed")
	err := NewGate().WaitForLogin(context.Background(), &scriptedURLs{err: boom}, time.Millisecond)
	assert.ErrorIs(t, err, boom)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting_human", AwaitingHuman.String())
	assert.Equal(t, "unknown", State(9).String())
}
