package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/pkg/response"
)

const actorKey = "actor"

// SessionResolver turns a bearer token into the acting identity.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*policy.Actor, error)
}

// OwnerLookup returns the owning teacher of a club.
type OwnerLookup func(ctx context.Context, clubID uint) (uint, error)

// JWTAuth requires a valid "Authorization: Bearer <token>" header and stores the actor.
func JWTAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthenticated(c, policy.ErrUnauthenticated)
			return
		}

		actor, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			abortUnauthenticated(c, err)
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth resolves the actor when a token is sent and lets anonymous requests
// through. A token that is present but invalid is still rejected.
func OptionalAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			abortUnauthenticated(c, policy.ErrUnauthenticated)
			return
		}
		actor, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			abortUnauthenticated(c, err)
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireCapability gates a route on a role capability. Use ClubOwner for ownership.
func RequireCapability(capability policy.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Check(CurrentActor(c), capability, 0); err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClubOwner requires the actor to own the club named by the path parameter.
// Unknown clubs are reported as 404 before ownership is judged.
func ClubOwner(lookup OwnerLookup, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if err := policy.Check(actor, policy.Teacher, 0); err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		clubID, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil || clubID == 0 {
			response.BadRequest(c, 10001, "invalid club id")
			c.Abort()
			return
		}

		ownerID, err := lookup(c.Request.Context(), uint(clubID))
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		if err := policy.Check(actor, policy.Owner, ownerID); err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor returns the authenticated actor, or nil for anonymous requests.
func CurrentActor(c *gin.Context) *policy.Actor {
	v, exists := c.Get(actorKey)
	if !exists {
		return nil
	}
	actor, _ := v.(*policy.Actor)
	return actor
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortUnauthenticated(c *gin.Context, err error) {
	c.Header("WWW-Authenticate", "Bearer")
	response.FromError(c, err)
	c.Abort()
}
