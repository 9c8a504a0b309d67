package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eaglebank/admin-service/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

var (
	jwtSecretMu  sync.RWMutex
	jwtSecretVal []byte
)

// MustInitJWTSecret installs the signing secret and panics when it is empty.
func MustInitJWTSecret(secret string) {
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	jwtSecretMu.Lock()
	defer jwtSecretMu.Unlock()
	jwtSecretVal = []byte(secret)
}

func jwtSecret() []byte {
	jwtSecretMu.RLock()
	defer jwtSecretMu.RUnlock()
	return jwtSecretVal
}

// Principal is the authenticated caller.
type Principal struct {
	UserID   int64
	Username string
	Roles    []models.Role
}

func (p Principal) HasRole(role models.Role) bool {
	return slices.Contains(p.Roles, role)
}

type Claims struct {
	Username string        `json:"username"`
	Roles    []models.Role `json:"roles"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for p that expires after ttl.
func IssueToken(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: p.Username,
		Roles:    p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a signed token and returns its principal.
func ParseToken(tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return jwtSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token subject")
	}
	return Principal{UserID: userID, Username: claims.Username, Roles: claims.Roles}, nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		principal, err := ParseToken(parts[1])
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		if !principal.HasRole(role) {
			RespondWithError(c, http.StatusForbidden, "Insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// Username returns the caller's username, or "" for anonymous requests.
func Username(c *gin.Context) string {
	p, _ := GetPrincipal(c)
	return p.Username
}
