package middleware

import (
	"net/http"
	"strings"

	"github.com/5inee/predict-battle/internal/models"
	"github.com/5inee/predict-battle/internal/services"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// JWTAuth requires a valid bearer token and stores the registered
// principal on the context.
func JWTAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := bearerUser(c, authService)
		if !ok {
			return
		}

		c.Set("user_id", user.ID)
		c.Set(principalKey, models.RegisteredPrincipal(user))
		c.Next()
	}
}

// FlexAuth accepts either a bearer token (registered) or self-asserted
// guest identity carried as guest=true&guestId=&guestName= query
// parameters. Guest identity is not verified server-side.
func FlexAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("guest") == "true" {
			guestID := c.Query("guestId")
			guestName := c.Query("guestName")
			if guestID == "" || guestName == "" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid guest information"})
				return
			}
			c.Set(principalKey, models.GuestPrincipal(guestID, guestName))
			c.Next()
			return
		}

		user, ok := bearerUser(c, authService)
		if !ok {
			return
		}

		c.Set("user_id", user.ID)
		c.Set(principalKey, models.RegisteredPrincipal(user))
		c.Next()
	}
}

// GetPrincipal returns the principal set by JWTAuth or FlexAuth.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	val, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	principal, ok := val.(models.Principal)
	return principal, ok
}

func bearerUser(c *gin.Context, authService *services.AuthService) (*models.User, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
		return nil, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		return nil, false
	}

	userID, err := authService.ValidateToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return nil, false
	}

	user, err := authService.GetUser(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found or deleted"})
		return nil, false
	}

	return user, true
}
