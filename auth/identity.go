// Package auth models who is calling the API.
package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrUnauthorized is returned when a token is invalid or names a user who
// may no longer sign in.
var ErrUnauthorized = errors.New("could not validate credentials")

// Identity is either Anonymous or Authenticated. The unexported method
// closes the set so a type switch over the two cases is exhaustive.
type Identity interface {
	identity()
}

type Anonymous struct{}

type Authenticated struct {
	UserID   uint
	Username string
	Email    string
	Role     string
}

func (Anonymous) identity()     {}
func (Authenticated) identity() {}

// IsAdmin reports whether the caller holds the admin role.
func (a Authenticated) IsAdmin() bool {
	return a.Role == "admin"
}

const contextKey = "identity"

// SetIdentity stores id on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(contextKey, id)
}

// FromContext returns the caller identity, defaulting to Anonymous.
func FromContext(c *gin.Context) Identity {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Anonymous{}
}

// Caller returns the authenticated caller, if any.
func Caller(c *gin.Context) (Authenticated, bool) {
	a, ok := FromContext(c).(Authenticated)
	return a, ok
}
