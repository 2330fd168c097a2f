package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arjul1989/gradanegra-sub001/pkg/response"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)

// Context keys for organizer information
const (
	ContextKeyOrganizerID = "organizer_id"
	ContextKeyEmail       = "email"
	ContextKeyRole        = "role"
	ContextKeyPlan        = "plan"
)

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	// Secret key for validating JWT tokens
	Secret string
	// SkipPaths is a list of paths that should skip JWT validation
	SkipPaths []string
}

func abortUnauthorized(c *gin.Context, code, message string) {
	response.Error(c, http.StatusUnauthorized, code, message, "")
	c.Abort()
}

// JWTMiddleware creates a new JWT validation middleware.
// Tokens carry the organizer identity and plan tier as claims.
func JWTMiddleware(config *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "MISSING_TOKEN", "Authorization header is required")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid authorization header format")
			return
		}
		tokenString := authHeader[len(bearerPrefix):]

		if tokenString == "" {
			abortUnauthorized(c, "INVALID_TOKEN", "Token is empty")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(config.Secret), nil
		})

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, "TOKEN_EXPIRED", "Access token has expired")
				return
			}
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid access token")
			return
		}

		if !token.Valid {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid access token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid token claims")
			return
		}

		organizerID, ok := claims["organizer_id"].(string)
		if !ok || organizerID == "" {
			abortUnauthorized(c, "INVALID_TOKEN", "Missing organizer_id in token")
			return
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		plan, _ := claims["plan"].(string)

		c.Set(ContextKeyOrganizerID, organizerID)
		c.Set(ContextKeyEmail, email)
		c.Set(ContextKeyRole, role)
		c.Set(ContextKeyPlan, plan)

		c.Next()
	}
}

// RequireRole creates a middleware that checks if the caller has a required role
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextKeyRole)
		if !exists {
			abortUnauthorized(c, "UNAUTHORIZED", "Not authenticated")
			return
		}

		roleStr, ok := userRole.(string)
		if !ok {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Invalid role type", "")
			c.Abort()
			return
		}

		for _, r := range roles {
			if roleStr == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "Insufficient permissions")
		c.Abort()
	}
}

// GetOrganizerID extracts the organizer ID from gin context
func GetOrganizerID(c *gin.Context) (string, bool) {
	organizerID, exists := c.Get(ContextKeyOrganizerID)
	if !exists {
		return "", false
	}
	id, ok := organizerID.(string)
	return id, ok
}

// GetEmail extracts email from gin context
func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ContextKeyEmail)
	if !exists {
		return "", false
	}
	e, ok := email.(string)
	return e, ok
}

// GetPlan extracts the organizer plan tier from gin context
func GetPlan(c *gin.Context) (string, bool) {
	plan, exists := c.Get(ContextKeyPlan)
	if !exists {
		return "", false
	}
	p, ok := plan.(string)
	return p, ok
}
