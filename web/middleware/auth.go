package middleware

import (
	"net/http"
	"os"
	"strings"

	"teamline/utils"
	"teamline/web/db"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RequireAuth validates the bearer token and loads the user row into the
// context under "user" / "userID".
func RequireAuth(c *gin.Context) {
	tokenString := c.GetHeader("Authorization")
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(os.Getenv("SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	var user db.User
	if err := db.DB.First(&user, uint(sub)).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if user.Status != "active" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is not active"})
		return
	}

	c.Set("user", user)
	c.Set("userID", user.ID)

	c.Next()
}

// RequireAdmin runs after RequireAuth and gates admin and founder roles.
func RequireAdmin(c *gin.Context) {
	user, ok := c.Get("user")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	role := user.(db.User).Role
	if role != db.RoleAdmin && role != db.RoleFounder {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	c.Next()
}

// RequireFounder gates the founder-only endpoints.
func RequireFounder(c *gin.Context) {
	user, ok := c.Get("user")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if user.(db.User).Role != db.RoleFounder {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Founder access required"})
		return
	}

	c.Next()
}

// AdminAuth checks the registration key for machine-to-machine endpoints.
func AdminAuth(c *gin.Context) {
	if c.GetHeader("X-Reg-Key") != utils.Regkey() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid registration key"})
		return
	}
	c.Next()
}
