// Package session keeps the signed-in identity for each browser.
package session

import (
	"context"
	"fmt"

	"github.com/newthinker/strategylab/internal/core"
)

// Session is the authenticated identity returned by the backend.
type Session struct {
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// Valid reports whether the session carries a token.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}

// Store persists sessions by opaque id. Load returns an error matching
// core.ErrSessionNotFound when nothing is stored under the id.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, id string, s Session) error
	Delete(ctx context.Context, id string) error
}

func notFound(id string) error {
	return core.WrapError(core.ErrSessionNotFound, fmt.Errorf("id %q", id))
}
