package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/review-pipeline/internal/config"
	"github.com/review-pipeline/internal/models"
)

const viewerKey = "viewer"

var errNoSecret = errors.New("token verification is not configured")

// Claims are the privilege claims carried by a bearer token
type Claims struct {
	Role     models.Role `json:"role"`
	AuthorID int64       `json:"author_id,omitempty"`
	jwt.RegisteredClaims
}

// authenticator verifies HS256 bearer tokens. Tokens are issued elsewhere.
type authenticator struct {
	secret []byte
	issuer string
}

func newAuthenticator(cfg config.AuthConfig) *authenticator {
	return &authenticator{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

func (a *authenticator) parse(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errNoSecret
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	switch claims.Role {
	case models.RoleAdmin, models.RoleAuthor:
	default:
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// viewerMiddleware resolves the viewer. Requests without a token are
// public readers; a token that fails verification is rejected outright.
func (a *authenticator) viewerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(viewerKey, models.Viewer{})
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := a.parse(strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(viewerKey, models.Viewer{Role: claims.Role, AuthorID: claims.AuthorID})
		c.Next()
	}
}

// requireViewer rejects anonymous requests
func requireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if viewerFrom(c).Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// requireAdmin rejects everyone but administrators
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := viewerFrom(c)
		if v.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !v.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func viewerFrom(c *gin.Context) models.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(models.Viewer); ok {
			return viewer
		}
	}
	return models.Viewer{}
}
