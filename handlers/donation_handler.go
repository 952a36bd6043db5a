package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"findyourprogram-api/ledger"
	"findyourprogram-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitiateDonationHandler validates the pledge, then lets the ledger create
// the donation/payment pair and open the charge intent.
func InitiateDonationHandler(co *ledger.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Name        string  `json:"name"`
			Phone       string  `json:"phone"`
			Email       string  `json:"email"`
			Reason      string  `json:"reason"`
			Suggestions string  `json:"suggestions"`
			AmountCents float64 `json:"amountCents"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}

		name := strings.TrimSpace(body.Name)
		phone := strings.TrimSpace(body.Phone)
		email := strings.TrimSpace(body.Email)
		reason := strings.TrimSpace(body.Reason)
		suggestions := strings.TrimSpace(body.Suggestions)

		if name == "" || phone == "" || email == "" || reason == "" || suggestions == "" {
			c.String(http.StatusBadRequest, "All fields are required.")
			return
		}
		if !emailRe.MatchString(email) {
			c.String(http.StatusBadRequest, "Invalid email.")
			return
		}
		if !validPhone(phone) {
			c.String(http.StatusBadRequest, "Invalid phone number.")
			return
		}
		if body.AmountCents <= 0 || body.AmountCents != math.Trunc(body.AmountCents) {
			c.String(http.StatusBadRequest, "Invalid amount.")
			return
		}
		amountCents := int64(body.AmountCents)

		donation := models.Donation{
			CreatedAt:   time.Now(),
			Name:        name,
			Phone:       phone,
			Email:       email,
			Reason:      reason,
			Suggestions: suggestions,
			AmountCents: amountCents,
			Currency:    "cad",
			Status:      models.StatusInitiated,
			PaymentID:   nil,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		res, err := co.Initiate(ctx, donation, amountCents, "cad")
		if err != nil {
			log.Println("donations/initiate:", err)
			c.String(http.StatusInternalServerError, "Unable to initiate donation.")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"donationId":   res.IntentID.Hex(),
			"paymentId":    res.PaymentID.Hex(),
			"clientSecret": res.ClientSecret,
			"amountCents":  res.AmountCents,
		})
	}
}

func CompleteDonationHandler(co *ledger.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			DonationID      string `json:"donationId"`
			PaymentID       string `json:"paymentId"`
			Outcome         string `json:"outcome"`
			ErrorMessage    string `json:"errorMessage"`
			PaymentIntentID string `json:"paymentIntentId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}
		if body.DonationID == "" || body.PaymentID == "" || body.Outcome == "" {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}

		donationID, err := primitive.ObjectIDFromHex(body.DonationID)
		if err != nil {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}
		paymentID, err := primitive.ObjectIDFromHex(body.PaymentID)
		if err != nil {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		err = co.Complete(ctx, donationID, paymentID, models.PaymentStatus(body.Outcome), body.PaymentIntentID, body.ErrorMessage)
		if errors.Is(err, ledger.ErrTerminalConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already settled."})
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found."})
			return
		}
		if err != nil {
			log.Println("donations/complete:", err)
			c.String(http.StatusInternalServerError, "Unable to finalize donation.")
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func ListDonationsHandler(donations Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cursor, err := donations.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			c.String(http.StatusInternalServerError, "Failed to load donations.")
			return
		}

		results := []models.Donation{}
		if err := cursor.All(ctx, &results); err != nil {
			c.String(http.StatusInternalServerError, "Failed to load donations.")
			return
		}

		c.JSON(http.StatusOK, results)
	}
}

// DonationStatusHandler reports the reconciled status, preferring the payment
// record over the donation's cached copy.
func DonationStatusHandler(co *ledger.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		donationID, err := primitive.ObjectIDFromHex(c.Query("id"))
		if err != nil {
			c.String(http.StatusBadRequest, "Invalid id.")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status, err := co.Status(ctx, donationID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found."})
			return
		}
		if err != nil {
			log.Println("donations/status:", err)
			c.String(http.StatusInternalServerError, "Failed to load donation status.")
			return
		}

		c.JSON(http.StatusOK, gin.H{"donationId": donationID.Hex(), "status": status})
	}
}
