package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
	"github.com/opencivic/civicflow-api/pkg/response"
)

// RequireRoles gates a route to the listed roles. Finer, relationship-aware
// checks stay in the access service; this is only the coarse role cut.
func RequireRoles(roles ...models.ActorRole) gin.HandlerFunc {
	allowed := make(map[models.ActorRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			response.Error(c, appErrors.ErrUnidentified)
			c.Abort()
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
