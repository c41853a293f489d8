// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated admin's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access user information without depending on Gin.
type Identity interface {
	// AdminID returns the authenticated admin user's ID.
	AdminID() uuid.UUID
	// Email returns the authenticated admin's email address.
	Email() string
	// IsAuthenticated returns true if the caller is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	adminID       uuid.UUID
	email         string
	authenticated bool
}

func (i *identity) AdminID() uuid.UUID {
	return i.adminID
}

func (i *identity) Email() string {
	return i.email
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if admin info is not present.
func GetIdentity(c *gin.Context) Identity {
	adminID, idOK := c.Get(ContextAdminIDKey)
	email, _ := c.Get(ContextAdminEmailKey)

	if !idOK {
		return &identity{authenticated: false}
	}

	uid, ok := adminID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	emailStr, _ := email.(string)

	return &identity{
		adminID:       uid,
		email:         emailStr,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the caller is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
