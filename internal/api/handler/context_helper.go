package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/internal/api/middleware"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/pkg/response"
)

// MustGetActor returns the authenticated actor. When the auth middleware did not run
// it writes 401 and returns false; callers return immediately.
func MustGetActor(c *gin.Context) (*policy.Actor, bool) {
	actor := middleware.CurrentActor(c)
	if actor == nil {
		response.FromError(c, policy.ErrUnauthenticated)
		return nil, false
	}
	return actor, true
}

// MustGetIDParam parses a positive integer path parameter, writing 400 otherwise.
func MustGetIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
