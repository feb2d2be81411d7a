package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	errs "igharvest/pkg/errors"
)

// LoginPathMarker identifies the login wall in a page URL
const LoginPathMarker = "accounts/login"

// State is the login gate's position
type State int

const (
	NotAuthenticated State = iota
	AwaitingHuman
	Authenticated
)

func (s State) String() string {
	switch s {
	case NotAuthenticated:
		return "not_authenticated"
	case AwaitingHuman:
		return "awaiting_human"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// URLSource reports the URL the browser is currently showing
type URLSource interface {
	CurrentURL(ctx context.Context) (string, error)
}

// Gate tracks whether a human still has to finish logging in.
// OnAwaitingHuman fires once per entry into AwaitingHuman.
type Gate struct {
	mu              sync.Mutex
	state           State
	OnAwaitingHuman func(url string)
	OnAuthenticated func()
}

// NewGate returns a gate in NotAuthenticated
func NewGate() *Gate {
	return &Gate{state: NotAuthenticated}
}

// NewAuthenticatedGate returns a gate that is already past login
func NewAuthenticatedGate() *Gate {
	return &Gate{state: Authenticated}
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Observe feeds the current browser URL into the gate and returns the new state
func (g *Gate) Observe(url string) State {
	g.mu.Lock()
	prev := g.state
	if strings.Contains(url, LoginPathMarker) {
		g.state = AwaitingHuman
	} else {
		g.state = Authenticated
	}
	next := g.state
	g.mu.Unlock()

	if next == prev {
		return next
	}
	switch next {
	case AwaitingHuman:
		if g.OnAwaitingHuman != nil {
			g.OnAwaitingHuman(url)
		}
	case Authenticated:
		if prev == AwaitingHuman && g.OnAuthenticated != nil {
			g.OnAuthenticated()
		}
	}
	return next
}

// WaitForLogin polls src every poll interval until the gate reaches
// Authenticated. It returns ErrLoginTimeout when ctx's deadline passes first.
func (g *Gate) WaitForLogin(ctx context.Context, src URLSource, poll time.Duration) error {
	if poll <= 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		url, err := src.CurrentURL(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return loginWaitError(ctxErr)
			}
			return err
		}
		if g.Observe(url) == Authenticated {
			return nil
		}

		select {
		case <-ctx.Done():
			return loginWaitError(ctx.Err())
		case <-ticker.C:
		}
	}
}

func loginWaitError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.ErrLoginTimeout
	}
	return err
}
