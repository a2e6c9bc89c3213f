package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/flyx/flyx-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// RoleAdmin grants access to the /admin routes
const RoleAdmin = "admin"

// UserContext represents the authenticated user's information
type UserContext struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the user carries role
func (u UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type authFailure struct {
	status  int
	error   string
	message string
	code    string
}

func (f *authFailure) abort(c *gin.Context) {
	c.AbortWithStatusJSON(f.status, gin.H{
		"error":   f.error,
		"message": f.message,
		"code":    f.code,
	})
}

// authenticate reads the bearer token. It returns (nil, nil) when the request
// carries no Authorization header.
func authenticate(c *gin.Context, jwtService *jwt.Service, logger *logrus.Logger) (*UserContext, *authFailure) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	fields := logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		logger.WithFields(fields).Warn("AUTH FAILED: invalid auth format")
		return nil, &authFailure{
			status:  http.StatusUnauthorized,
			error:   "unauthorized",
			message: "Invalid authorization header format. Expected: Bearer <token>",
			code:    "INVALID_AUTH_FORMAT",
		}
	}

	tokenString := strings.TrimSpace(parts[1])
	claims, err := jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			logger.WithFields(fields).WithError(err).Info("AUTH FAILED: token expired")
			return nil, &authFailure{
				status:  http.StatusUnauthorized,
				error:   "token_expired",
				message: "Access token has expired",
				code:    "TOKEN_EXPIRED",
			}
		}
		logger.WithFields(fields).WithError(err).Warn("AUTH FAILED: invalid token")
		return nil, &authFailure{
			status:  http.StatusUnauthorized,
			error:   "invalid_token",
			message: "Invalid access token",
			code:    "INVALID_TOKEN",
		}
	}

	return &UserContext{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles}, nil
}

// AuthMiddleware creates a middleware that requires a valid JWT
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, failure := authenticate(c, jwtService, logger)
		if failure != nil {
			failure.abort(c)
			return
		}
		if user == nil {
			logger.WithField("path", c.Request.URL.Path).Info("AUTH FAILED: missing authorization header")
			(&authFailure{
				status:  http.StatusUnauthorized,
				error:   "unauthorized",
				message: "Authorization header is required",
				code:    "MISSING_AUTH_HEADER",
			}).abort(c)
			return
		}

		c.Set(UserContextKey, *user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a token is present and lets guests
// through. A present but invalid token is still rejected.
func OptionalAuth(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, failure := authenticate(c, jwtService, logger)
		if failure != nil {
			failure.abort(c)
			return
		}
		if user != nil {
			c.Set(UserContextKey, *user)
		}
		c.Next()
	}
}

// RequireRole creates a middleware that checks if user has any of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			(&authFailure{
				status:  http.StatusUnauthorized,
				error:   "unauthorized",
				message: "User context not found. Auth middleware may not be applied.",
				code:    "MISSING_USER_CONTEXT",
			}).abort(c)
			return
		}

		for _, role := range roles {
			if userCtx.HasRole(role) {
				c.Next()
				return
			}
		}

		(&authFailure{
			status:  http.StatusForbidden,
			error:   "forbidden",
			message: "You don't have permission to access this resource",
			code:    "INSUFFICIENT_PERMISSIONS",
		}).abort(c)
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	return userCtx, ok
}
