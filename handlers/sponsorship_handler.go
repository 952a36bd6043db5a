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

func InitiateSponsorshipHandler(co *ledger.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			UniName        string  `json:"uniName"`
			ProgramName    string  `json:"programName"`
			DepartmentName string  `json:"departmentName"`
			Email          string  `json:"email"`
			Phone          string  `json:"phone"`
			Message        string  `json:"message"`
			AmountCents    float64 `json:"amountCents"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}

		uniName := strings.TrimSpace(body.UniName)
		programName := strings.TrimSpace(body.ProgramName)
		departmentName := strings.TrimSpace(body.DepartmentName)
		email := strings.TrimSpace(body.Email)
		phone := strings.TrimSpace(body.Phone)
		message := strings.TrimSpace(body.Message)

		if uniName == "" || programName == "" || departmentName == "" || email == "" || phone == "" || message == "" {
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
		// Sponsorships are sold at one fixed price, nothing else goes through.
		if body.AmountCents != math.Trunc(body.AmountCents) || int64(body.AmountCents) != models.SponsorshipAmountCents {
			c.String(http.StatusBadRequest, "Invalid amount.")
			return
		}

		startsAt := time.Now()
		sponsorship := models.Sponsorship{
			CreatedAt:      startsAt,
			UniName:        uniName,
			ProgramName:    programName,
			DepartmentName: departmentName,
			Email:          email,
			Phone:          phone,
			Message:        message,
			AmountCents:    models.SponsorshipAmountCents,
			Currency:       "cad",
			Status:         models.StatusInitiated,
			StartsAt:       startsAt,
			ExpiresAt:      startsAt.Add(models.SponsorshipWindow),
			PaymentID:      nil,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		res, err := co.Initiate(ctx, sponsorship, models.SponsorshipAmountCents, "cad")
		if err != nil {
			log.Println("sponsorships/initiate:", err)
			c.String(http.StatusInternalServerError, "Unable to initiate sponsorship.")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"sponsorshipId": res.IntentID.Hex(),
			"paymentId":     res.PaymentID.Hex(),
			"clientSecret":  res.ClientSecret,
			"amountCents":   res.AmountCents,
		})
	}
}

func CompleteSponsorshipHandler(co *ledger.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			SponsorshipID   string `json:"sponsorshipId"`
			PaymentID       string `json:"paymentId"`
			Outcome         string `json:"outcome"`
			ErrorMessage    string `json:"errorMessage"`
			PaymentIntentID string `json:"paymentIntentId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}
		if body.SponsorshipID == "" || body.PaymentID == "" || body.Outcome == "" {
			c.String(http.StatusBadRequest, "Invalid payload.")
			return
		}

		sponsorshipID, err := primitive.ObjectIDFromHex(body.SponsorshipID)
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

		err = co.Complete(ctx, sponsorshipID, paymentID, models.PaymentStatus(body.Outcome), body.PaymentIntentID, body.ErrorMessage)
		if errors.Is(err, ledger.ErrTerminalConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already settled."})
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found."})
			return
		}
		if err != nil {
			log.Println("sponsorships/complete:", err)
			c.String(http.StatusInternalServerError, "Unable to finalize sponsorship.")
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func ListSponsorshipsHandler(sponsorships Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cursor, err := sponsorships.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			c.String(http.StatusInternalServerError, "Failed to load sponsorships.")
			return
		}

		results := []models.Sponsorship{}
		if err := cursor.All(ctx, &results); err != nil {
			c.String(http.StatusInternalServerError, "Failed to load sponsorships.")
			return
		}

		c.JSON(http.StatusOK, results)
	}
}

// ActiveSponsorsHandler returns up to two random sponsorships that succeeded
// and have not expired yet, for the public sponsor banner.
func ActiveSponsorsHandler(sponsorships Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"status":    models.StatusSucceeded,
				"expiresAt": bson.M{"$gte": time.Now()},
			}}},
			{{Key: "$project", Value: bson.M{
				"uniName":        1,
				"programName":    1,
				"departmentName": 1,
				"expiresAt":      1,
			}}},
			{{Key: "$sample", Value: bson.M{"size": 2}}},
		}

		cursor, err := sponsorships.Aggregate(ctx, pipeline)
		if err != nil {
			c.String(http.StatusInternalServerError, "Failed to load sponsors.")
			return
		}

		sponsors := []bson.M{}
		if err := cursor.All(ctx, &sponsors); err != nil {
			c.String(http.StatusInternalServerError, "Failed to load sponsors.")
			return
		}

		c.JSON(http.StatusOK, gin.H{"sponsors": sponsors})
	}
}

func SponsorshipStatusHandler(co *ledger.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sponsorshipID, err := primitive.ObjectIDFromHex(c.Query("id"))
		if err != nil {
			c.String(http.StatusBadRequest, "Invalid id.")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status, err := co.Status(ctx, sponsorshipID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sponsorship not found."})
			return
		}
		if err != nil {
			log.Println("sponsorships/status:", err)
			c.String(http.StatusInternalServerError, "Failed to load sponsorship status.")
			return
		}

		c.JSON(http.StatusOK, gin.H{"sponsorshipId": sponsorshipID.Hex(), "status": status})
	}
}
