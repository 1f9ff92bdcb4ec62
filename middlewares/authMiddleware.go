package middlewares

import (
	"context"
	"net/http"
	"strings"

	"prajavaradhi-be/config"
	"prajavaradhi-be/models"
	"prajavaradhi-be/store"
	authUtils "prajavaradhi-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CurrentUserKey is the gin context key the resolved identity is stored
// under.
const CurrentUserKey = "currentUser"

var userStore store.UserStore

// Init wires the user store the middlewares resolve identities against.
func Init(users store.UserStore) {
	userStore = users
}

// CurrentUser returns the identity Protect (or OptionalAuth) attached to
// the request.
func CurrentUser(c *gin.Context) (*models.AuthUser, bool) {
	val, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*models.AuthUser)
	return user, ok
}

// Protect verifies the bearer token and attaches the resolved identity.
// Missing, malformed or expired tokens abort with 401.
func Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No authorization token provided"})
			c.Abort()
			return
		}

		user, ok := resolveBearer(c.Request.Context(), authHeader)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set(CurrentUserKey, user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// OptionalAuth attaches an identity when a bearer token is supplied and
// lets anonymous requests through untouched. A token that is present but
// invalid still aborts with 401.
func OptionalAuth() gin.HandlerFunc {
	protect := Protect()
	return func(c *gin.Context) {
		if c.Request.Header.Get("Authorization") == "" {
			c.Next()
			return
		}
		protect(c)
	}
}

// Authorize gates a route on role membership. It must run after Protect;
// a valid token with a disallowed role gets 403.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "User role '" + user.Role + "' is not authorized to access this route",
		})
		c.Abort()
	}
}

// resolveBearer parses the Authorization header and resolves the token's
// subject to an identity: a stored user, or a synthetic administrator
// when the subject matches a configured break-glass username.
func resolveBearer(ctx context.Context, authHeader string) (*models.AuthUser, bool) {
	tokenString := authHeader
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = authHeader[7:]
	}

	userID, err := authUtils.ParseToken(tokenString)
	if err != nil {
		return nil, false
	}

	if admin, ok := config.LegacyAdminByUsername(userID); ok {
		return &models.AuthUser{
			ID:        "admin_" + admin.Username,
			Name:      admin.Name,
			Email:     admin.Username + "@prajavaradhi.gov.in",
			Role:      models.RoleAdmin,
			Synthetic: true,
		}, true
	}

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}

	user, err := userStore.FindByID(ctx, objectID)
	if err != nil {
		return nil, false
	}

	return &models.AuthUser{
		ID:       user.ID.Hex(),
		ObjectID: user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		Role:     user.Role,
		District: user.District,
	}, true
}
