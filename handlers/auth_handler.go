package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"findyourprogram-api/middleware"
	"findyourprogram-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 7 * 24 * time.Hour

func RegisterHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload."})
			return
		}

		username := strings.TrimSpace(body.Username)
		name := strings.TrimSpace(body.Name)
		email := strings.ToLower(strings.TrimSpace(body.Email))

		if len(username) < 3 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid username."})
			return
		}
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Full name required."})
			return
		}
		if !emailRe.MatchString(email) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email."})
			return
		}
		if len(body.Password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password too short."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.User
		err := users.FindOne(ctx, bson.M{"$or": bson.A{bson.M{"username": username}, bson.M{"email": email}}}).Decode(&existing)
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists."})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		user := models.User{
			Username:     username,
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			CreatedAt:    time.Now(),
		}
		res, err := users.InsertOne(ctx, user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "userId": res.InsertedID})
	}
}

func LoginHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload."})
			return
		}

		username := strings.TrimSpace(body.Username)
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username is required."})
			return
		}
		if body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password is required."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		err := users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password."})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password."})
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"userId":   user.ID.Hex(),
			"username": user.Username,
			"email":    user.Email,
			"isAdmin":  user.IsAdmin,
			"exp":      time.Now().Add(tokenLifetime).Unix(),
		})
		tokenString, err := token.SignedString(middleware.GetSecret())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		middleware.SetAuthCookie(c, tokenString, tokenLifetime)
		c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
	}
}

func LogoutHandler(c *gin.Context) {
	middleware.ClearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// MeHandler always answers 200; the body says whether a session exists. The
// user document is re-read so the response reflects current state, not
// whatever the 7-day token was issued with.
func MeHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(middleware.CookieName)
		if err != nil || tokenString == "" {
			c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
			return
		}

		claim, err := middleware.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
			return
		}

		userID, err := primitive.ObjectIDFromHex(claim.UserID)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"authenticated": false, "user": nil})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"authenticated": true,
			"user": gin.H{
				"id":       user.ID.Hex(),
				"username": user.Username,
				"email":    user.Email,
				"name":     user.Name,
				"isAdmin":  user.IsAdmin,
			},
		})
	}
}
