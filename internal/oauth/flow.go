// Package oauth runs the delegated identity flow used to register invited
// admins without a password.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/techdict/backend/internal/store"
)

const stateTTL = 10 * time.Minute

var ErrAuthFailed = errors.New("oauth authentication failed")

// Identity is what the provider asserts about the signed-in account.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Nonce         string
}

// VerifiedEmail returns the email only when the provider verified it.
func (i Identity) VerifiedEmail() string {
	if i.EmailVerified {
		return i.Email
	}
	return ""
}

type identityProvider interface {
	LoginURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// StateStore keeps pending flow state between the redirect and the callback.
type StateStore interface {
	Save(ctx context.Context, key, val string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, error)
}

type pending struct {
	Nonce   string `json:"nonce"`
	Payload string `json:"payload"`
}

// Flow binds an opaque payload to a provider round trip.
type Flow struct {
	provider identityProvider
	states   StateStore
}

func NewFlow(provider identityProvider, states StateStore) *Flow {
	return &Flow{provider: provider, states: states}
}

// Begin stores payload under a fresh state and returns the provider URL to
// redirect to.
func (f *Flow) Begin(ctx context.Context, payload string) (string, error) {
	state, nonce := randToken(32), randToken(16)

	val, err := json.Marshal(pending{Nonce: nonce, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	if err := f.states.Save(ctx, state, string(val), stateTTL); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}

	return f.provider.LoginURL(state, nonce), nil
}

// Complete consumes state, exchanges code and returns the payload given to
// Begin along with the provider identity.
func (f *Flow) Complete(ctx context.Context, code, state string) (string, Identity, error) {
	if code == "" || state == "" {
		return "", Identity{}, ErrAuthFailed
	}

	raw, err := f.states.Take(ctx, state)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Identity{}, ErrAuthFailed
		}
		return "", Identity{}, fmt.Errorf("load state: %w", err)
	}

	var p pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", Identity{}, fmt.Errorf("decode state: %w", err)
	}

	id, err := f.provider.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil &&
			(rerr.Response.StatusCode == http.StatusBadRequest || rerr.Response.StatusCode == http.StatusUnauthorized) {
			return "", Identity{}, ErrAuthFailed
		}
		return "", Identity{}, fmt.Errorf("exchange: %w", err)
	}

	if id.Nonce != p.Nonce {
		return "", Identity{}, ErrAuthFailed
	}

	return p.Payload, id, nil
}

func randToken(size int) string {
	b := make([]byte, size)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
