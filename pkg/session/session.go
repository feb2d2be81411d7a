// Package session turns a logged-in browser session into a cookie bag that a
// plain HTTP client can present, and gates the run on a human completing login.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	errs "igharvest/pkg/errors"
)

// CredentialBag maps cookie name to cookie value.
// It is written once by Bridge and only read afterwards.
type CredentialBag map[string]string

// CookieSource is anything that can report the cookies of an authenticated session
type CookieSource interface {
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

// CookieSourceFunc adapts a function to CookieSource
type CookieSourceFunc func(ctx context.Context) ([]*http.Cookie, error)

func (f CookieSourceFunc) Cookies(ctx context.Context) ([]*http.Cookie, error) { return f(ctx) }

// Bridge copies every cookie held by src into a new bag.
// A session holding no cookies yields ErrNoCredentials.
func Bridge(ctx context.Context, src CookieSource) (CredentialBag, error) {
	cookies, err := src.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading session cookies: %w", err)
	}

	bag := make(CredentialBag, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		bag[c.Name] = c.Value
	}
	if len(bag) == 0 {
		return nil, errs.ErrNoCredentials
	}
	return bag, nil
}

// Get returns the value of the named cookie, or "" if absent
func (b CredentialBag) Get(name string) string {
	return b[name]
}

// Names returns the cookie names in sorted order
func (b CredentialBag) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Header renders the bag as a Cookie header value with names sorted
func (b CredentialBag) Header() string {
	parts := make([]string, 0, len(b))
	for _, name := range b.Names() {
		parts = append(parts, name+"="+b[name])
	}
	return strings.Join(parts, "; ")
}

// Apply sets the Cookie header and, when the bag holds a csrftoken, the
// matching x-csrftoken header
func (b CredentialBag) Apply(req *http.Request) {
	if len(b) == 0 {
		return
	}
	req.Header.Set("Cookie", b.Header())
	if token := b.Get("csrftoken"); token != "" {
		req.Header.Set("x-csrftoken", token)
	}
}

// Clone returns an independent copy
func (b CredentialBag) Clone() CredentialBag {
	out := make(CredentialBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// HTTPCookies converts the bag back into cookies scoped to domain
func (b CredentialBag) HTTPCookies(domain string) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(b))
	for _, name := range b.Names() {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    b[name],
			Domain:   domain,
			Path:     "/",
			Secure:   true,
			HttpOnly: name == "sessionid",
		})
	}
	return cookies
}

// ParseHeader reads a Cookie header value such as "sessionid=1; csrftoken=2".
// A leading "Cookie:" and stray separators at either end are ignored.
func ParseHeader(line string) (CredentialBag, error) {
	line = strings.TrimSpace(line)
	if len(line) >= 7 && strings.EqualFold(line[:7], "cookie:") {
		line = line[7:]
	}
	line = strings.Trim(line, "; ")
	if line == "" {
		return nil, errs.ErrNoCredentials
	}
	cookies, err := http.ParseCookie(line)
	if err != nil {
		return nil, fmt.Errorf("parsing cookie header: %w", err)
	}
	bag := make(CredentialBag, len(cookies))
	for _, c := range cookies {
		bag[c.Name] = c.Value
	}
	if len(bag) == 0 {
		return nil, errs.ErrNoCredentials
	}
	return bag, nil
}
