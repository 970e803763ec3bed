package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/identity"
	"github.com/abhisek/placeprep/internal/store"
)

const userKey = "placeprep.user"

// requireUser resolves the caller from the identity headers and rejects
// the request when there is none.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := identity.New(c.GetHeader(HeaderUserID), c.GetHeader(HeaderUserRole))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) identity.User {
	return c.MustGet(userKey).(identity.User)
}

// writeError maps store and validation errors to a JSON error response.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrTestNotFound), errors.Is(err, store.ErrAttemptNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assessment.ErrAttemptCompleted):
		status = http.StatusConflict
	case errors.Is(err, assessment.ErrNoQuestions),
		errors.Is(err, assessment.ErrInvalidDefinition),
		errors.Is(err, assessment.ErrOptionOutOfRange),
		errors.Is(err, assessment.ErrIndexOutOfRange):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
