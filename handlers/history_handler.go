package handlers

import (
	"context"
	"net/http"
	"time"

	"findyourprogram-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListHistoryHandler returns the account's saved recommendation runs, newest
// first. Only the summary goes out; the full result set stays behind the
// detail endpoint.
func ListHistoryHandler(results Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cursor, err := results.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load history."})
			return
		}

		runs := []models.SearchResult{}
		if err := cursor.All(ctx, &runs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load history."})
			return
		}

		items := make([]gin.H, 0, len(runs))
		for _, run := range runs {
			items = append(items, gin.H{
				"id":                   run.ID.Hex(),
				"createdAt":            run.CreatedAt,
				"preferences":          run.Preferences,
				"recommendationsCount": len(run.Recommendations),
			})
		}

		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// HistoryDetailHandler replays one saved run. The owner filter is part of the
// query, so another account's id just reads as not found.
func HistoryDetailHandler(results Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		runID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var run models.SearchResult
		if err := results.FindOne(ctx, bson.M{"_id": runID, "userId": userID}).Decode(&run); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		c.JSON(http.StatusOK, run)
	}
}
