package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Context keys set by TenantAuth.
const (
	CtxSchoolID = "school_id"
	CtxUserID   = "user_id"
	CtxRole     = "role"
)

const (
	RoleAdmin   = "admin"
	RoleBursar  = "bursar"
	RoleAuditor = "auditor"
)

// Claims is the access token payload. Every token is bound to exactly one school.
type Claims struct {
	SchoolID string `json:"school_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token.
func IssueToken(secret string, schoolID uuid.UUID, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SchoolID: schoolID.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// TenantAuth verifies the bearer token and scopes the request to the token's school.
func TenantAuth(secret string) gin.HandlerFunc {
	key := []byte(strings.TrimSpace(secret))

	return func(c *gin.Context) {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimSpace(authz[7:])

		var claims Claims
		tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		schoolID, err := uuid.Parse(claims.SchoolID)
		if err != nil || schoolID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is not bound to a school"})
			return
		}

		c.Set(CtxSchoolID, schoolID)
		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects requests whose token role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// SchoolID returns the tenant bound by TenantAuth.
func SchoolID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(CtxSchoolID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}
