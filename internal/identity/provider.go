// Package identity supplies verified identity strings to the gateway.
// Real credential verification (OAuth, passwords, email confirmation) lives
// outside this system; the Provider interface is the seam it plugs into.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyIdentity = errors.New("identity: empty identity")

// Provider verifies a self-reported identity and returns its canonical
// form. Implementations may reject identities they cannot vouch for.
type Provider interface {
	Verify(ctx context.Context, identity string) (string, error)
}

// Static accepts any non-empty identity and canonicalizes it to trimmed
// lowercase. Identity comparison throughout the system is case-insensitive,
// so canonical form keeps lookups honest.
type Static struct{}

// Verify implements Provider.
func (Static) Verify(_ context.Context, identity string) (string, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return "", ErrEmptyIdentity
	}
	return identity, nil
}
