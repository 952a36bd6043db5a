package middleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CookieName = "auth_token"

var secretKey []byte

func LoadSecret() {
	secretKey = []byte(os.Getenv("JWT_SECRET"))
}

func GetSecret() []byte {
	return secretKey
}

// ErrUnauthenticated is the single rejection for every bad-credential case:
// missing token, garbage token, bad signature, expired, missing subject.
// Callers must not be able to tell which one happened.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claim is the verified identity payload carried by the auth cookie.
// IsAdmin comes verbatim from the token; authorization decisions re-check it
// against the users collection since tokens live for 7 days.
type Claim struct {
	UserID   string
	Username string
	Email    string
	IsAdmin  bool
}

func VerifyToken(tokenString string) (*Claim, error) {
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthenticated
		}
		return GetSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	userID, _ := claims["userId"].(string)
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := primitive.ObjectIDFromHex(userID); err != nil {
		return nil, ErrUnauthenticated
	}

	claim := &Claim{UserID: userID}
	claim.Username, _ = claims["username"].(string)
	claim.Email, _ = claims["email"].(string)
	claim.IsAdmin, _ = claims["isAdmin"].(bool)
	return claim, nil
}

// tokenFromRequest prefers the Authorization header, falls back to the cookie.
func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	tokenString, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return tokenString
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, err := VerifyToken(tokenFromRequest(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		c.Set("claim", claim)
		c.Set("userId", claim.UserID)
		c.Next()
	}
}

// AdminMiddleware runs after AuthMiddleware and requires isAdmin on the user
// document itself. The token's isAdmin claim may be up to 7 days stale.
func AdminMiddleware(users *mongo.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimVal, exists := c.Get("claim")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}
		claim := claimVal.(*Claim)

		userID, err := primitive.ObjectIDFromHex(claim.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user struct {
			IsAdmin bool `bson:"isAdmin"`
		}
		if err := users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func SetAuthCookie(c *gin.Context, tokenString string, duration time.Duration) {
	appEnv := os.Getenv("APP_ENV")

	maxAge := int(duration.Seconds())

	// Leave domain empty; pinning it breaks cookie delivery behind proxies.
	domain := ""

	secure := false
	httpOnly := true

	var sameSite http.SameSite
	if appEnv == "production" {
		secure = true
		sameSite = http.SameSiteStrictMode
	} else {
		sameSite = http.SameSiteLaxMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie(CookieName, tokenString, maxAge, "/", domain, secure, httpOnly)
}

func ClearAuthCookie(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}
