package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"findyourprogram-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

// resetCodeTTL is how long a recovery code stays usable.
const resetCodeTTL = 15 * time.Minute

// Sender delivers one plain-text mail. Satisfied by mailer.Mailer.
type Sender interface {
	Send(to, subject, body string) error
}

func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// ForgotPasswordHandler mails a six digit recovery code. The response is the
// same whether or not the address has an account, so the endpoint does not
// reveal which emails are registered.
func ForgotPasswordHandler(users Collection, mail Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email."})
			return
		}
		email := strings.ToLower(strings.TrimSpace(body.Email))
		if !emailRe.MatchString(email) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var user models.User
		if err := users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		code, err := newResetCode()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		_, err = users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
			"passwordResetCodeHash": hashResetCode(code),
			"passwordResetExpires":  time.Now().Add(resetCodeTTL),
		}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		subject := "Your password reset code"
		text := fmt.Sprintf("Hi %s,\n\nYour password reset code is: %s\n\nIt expires in 15 minutes. If you did not request this, ignore this email.", user.Name, code)
		if err := mail.Send(user.Email, subject, text); err != nil {
			log.Println("forgot: send mail:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// ResetPasswordHandler trades a valid recovery code for a new password and
// burns the code.
func ResetPasswordHandler(users Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email       string `json:"email"`
			Code        string `json:"code"`
			NewPassword string `json:"newPassword"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email."})
			return
		}
		email := strings.ToLower(strings.TrimSpace(body.Email))
		code := strings.TrimSpace(body.Code)

		if !emailRe.MatchString(email) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email."})
			return
		}
		if len(code) < 4 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid code."})
			return
		}
		if len(body.NewPassword) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be at least 6 characters."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired code."})
			return
		}
		if user.ResetCodeHash == "" || user.ResetExpires.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired code."})
			return
		}
		if time.Now().After(user.ResetExpires) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Code expired."})
			return
		}
		if hashResetCode(code) != user.ResetCodeHash {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid code."})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		_, err = users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
			"$set":   bson.M{"passwordHash": string(hash)},
			"$unset": bson.M{"passwordResetCodeHash": "", "passwordResetExpires": ""},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
