package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"findyourprogram-api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var knownTicketTypes = map[models.TicketType]bool{
	models.TicketRefund:       true,
	models.TicketWrongInfo:    true,
	models.TicketReportBug:    true,
	models.TicketPersonalInfo: true,
	models.TicketPartnership:  true,
	models.TicketOther:        true,
}

var knownTicketStatuses = map[models.TicketStatus]bool{
	models.TicketOpen:       true,
	models.TicketInProgress: true,
	models.TicketResolved:   true,
	models.TicketClosed:     true,
}

// CreateTicketHandler takes a public contact submission and opens a ticket.
// The reference code is what support quotes back to the requester.
func CreateTicketHandler(tickets Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Type    string `json:"type"`
			Name    string `json:"name"`
			Email   string `json:"email"`
			Summary string `json:"summary"`
			Details string `json:"details"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload."})
			return
		}

		name := strings.TrimSpace(body.Name)
		email := strings.TrimSpace(body.Email)
		summary := strings.TrimSpace(body.Summary)

		if name == "" || email == "" || summary == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Name, email and summary are required."})
			return
		}
		if !emailRe.MatchString(email) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email."})
			return
		}

		ticketType := models.TicketType(strings.TrimSpace(body.Type))
		if !knownTicketTypes[ticketType] {
			ticketType = models.TicketOther
		}

		now := time.Now()
		ticket := models.Ticket{
			Reference: uuid.NewString(),
			Type:      ticketType,
			Status:    models.TicketOpen,
			Name:      name,
			Email:     email,
			Summary:   summary,
			Details:   strings.TrimSpace(body.Details),
			CreatedAt: now,
			UpdatedAt: now,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := tickets.InsertOne(ctx, ticket)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to submit ticket."})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"ticketId": res.InsertedID, "reference": ticket.Reference})
	}
}

func ListTicketsHandler(tickets Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cursor, err := tickets.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load tickets."})
			return
		}

		results := []models.Ticket{}
		if err := cursor.All(ctx, &results); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load tickets."})
			return
		}

		c.JSON(http.StatusOK, gin.H{"tickets": results})
	}
}

// TicketDetailHandler returns one ticket together with its thread of notes
// and recorded status changes, oldest first.
func TicketDetailHandler(tickets, updates Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ticket id."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var ticket models.Ticket
		if err := tickets.FindOne(ctx, bson.M{"_id": ticketID}).Decode(&ticket); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found."})
			return
		}

		cursor, err := updates.Find(ctx, bson.M{"ticketId": ticketID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load ticket."})
			return
		}
		thread := []models.TicketUpdate{}
		if err := cursor.All(ctx, &thread); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load ticket."})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ticket": ticket, "updates": thread})
	}
}

// AddTicketUpdateHandler appends an admin note to the ticket's thread.
func AddTicketUpdateHandler(tickets, updates Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, _, ok := currentUser(c)
		if !ok {
			return
		}

		ticketID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ticket id."})
			return
		}

		var body struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload."})
			return
		}
		message := strings.TrimSpace(body.Message)
		if message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Message required."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tickets.FindOne(ctx, bson.M{"_id": ticketID}).Err(); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found."})
			return
		}

		update := models.TicketUpdate{
			TicketID:    ticketID,
			Kind:        models.TicketUpdateNote,
			Message:     message,
			AuthorName:  claim.Username,
			AuthorEmail: claim.Email,
			CreatedAt:   time.Now(),
		}
		res, err := updates.InsertOne(ctx, update)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to add update."})
			return
		}
		update.ID, _ = res.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"update": update})
	}
}

// UpdateTicketStatusHandler moves a ticket to a new status and records the
// transition in the thread. Setting the status it already has is a no-op.
func UpdateTicketStatusHandler(tickets, updates Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, _, ok := currentUser(c)
		if !ok {
			return
		}

		ticketID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ticket id."})
			return
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload."})
			return
		}

		status := models.TicketStatus(strings.TrimSpace(body.Status))
		if !knownTicketStatuses[status] {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown ticket status."})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var ticket models.Ticket
		if err := tickets.FindOne(ctx, bson.M{"_id": ticketID}).Decode(&ticket); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found."})
			return
		}
		if ticket.Status == status {
			c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
			return
		}

		now := time.Now()
		if _, err := tickets.UpdateOne(ctx, bson.M{"_id": ticketID}, bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": now,
		}}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update ticket."})
			return
		}

		// The trail entry is best effort; the status change already landed.
		if _, err := updates.InsertOne(ctx, models.TicketUpdate{
			TicketID:    ticketID,
			Kind:        models.TicketUpdateStatus,
			FromStatus:  ticket.Status,
			ToStatus:    status,
			AuthorName:  claim.Username,
			AuthorEmail: claim.Email,
			CreatedAt:   now,
		}); err != nil {
			log.Println("tickets/status: record transition:", err)
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
	}
}
