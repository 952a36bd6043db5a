package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"findyourprogram-api/middleware"
	"findyourprogram-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

func GetProfileHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"id":       user.ID.Hex(),
			"username": user.Username,
			"name":     user.Name,
			"email":    user.Email,
		}})
	}
}

// UpdateProfileHandler changes name, email and username. A username move
// fails with 409 when another account already holds the new one.
func UpdateProfileHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		var body struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Email    string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload."})
			return
		}

		patch := bson.M{}
		if name := strings.TrimSpace(body.Name); name != "" {
			patch["name"] = name
		}
		if email := strings.ToLower(strings.TrimSpace(body.Email)); email != "" {
			if !emailRe.MatchString(email) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email"})
				return
			}
			patch["email"] = email
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if username := strings.TrimSpace(body.Username); username != "" {
			var clash models.User
			err := users.FindOne(ctx, bson.M{"username": username, "_id": bson.M{"$ne": userID}}).Decode(&clash)
			if err == nil {
				c.JSON(http.StatusConflict, gin.H{"message": "Username already taken"})
				return
			}
			patch["username"] = username
		}

		if len(patch) > 0 {
			if _, err := users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": patch}); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
	}
}

// DeleteProfileHandler removes the account after the user types their own
// username back as confirmation, then kills the session cookie.
func DeleteProfileHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, userID, ok := currentUser(c)
		if !ok {
			return
		}

		var body struct {
			ConfirmUsername string `json:"confirmUsername"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Confirmation required"})
			return
		}
		confirm := strings.TrimSpace(body.ConfirmUsername)
		if confirm == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Confirmation required"})
			return
		}
		if confirm != claim.Username {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username does not match"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := users.DeleteOne(ctx, bson.M{"_id": userID})
		if err != nil || res.DeletedCount == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		middleware.ClearAuthCookie(c)
		c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
	}
}

func UpdatePasswordHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		var body struct {
			NewPassword     string `json:"newPassword"`
			ConfirmPassword string `json:"confirmPassword"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Both password fields are required"})
			return
		}
		if body.NewPassword == "" || body.ConfirmPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Both password fields are required"})
			return
		}
		if len(body.NewPassword) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be at least 6 characters long."})
			return
		}
		if body.NewPassword != body.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Passwords do not match."})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"passwordHash": string(hash)}}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	}
}
