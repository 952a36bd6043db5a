package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"findyourprogram-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ListFavoritesHandler(favorites Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cursor, err := favorites.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load favorites."})
			return
		}

		items := []models.Favorite{}
		if err := cursor.All(ctx, &items); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load favorites."})
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// AddFavoriteHandler pins a program to the account, snapshotting the catalog
// entry so the favorite still renders if the program is re-imported. Adding
// the same program twice is a no-op thanks to the $setOnInsert upsert.
func AddFavoriteHandler(favorites, programs Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		var body struct {
			ProgramID string `json:"programId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "programId required"})
			return
		}
		programID := strings.TrimSpace(body.ProgramID)
		if programID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "programId required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		count, err := favorites.CountDocuments(ctx, bson.M{"userId": userID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save favorite."})
			return
		}
		if count >= models.MaxFavorites {
			c.JSON(http.StatusForbidden, gin.H{"message": "Favorites limit reached (10)."})
			return
		}

		var program models.Program
		if err := programs.FindOne(ctx, bson.M{"programId": programID}).Decode(&program); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Program not found."})
			return
		}

		_, err = favorites.UpdateOne(ctx,
			bson.M{"userId": userID, "programId": programID},
			bson.M{"$setOnInsert": models.Favorite{
				UserID:    userID,
				ProgramID: programID,
				Snapshot: models.ProgramSnapshot{
					ProgramID:      program.ProgramID,
					ProgramName:    program.ProgramName,
					UniversityName: program.UniversityName,
					FacultyName:    program.FacultyName,
					Location:       program.Location,
				},
				CreatedAt: time.Now(),
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save favorite."})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"ok": true})
	}
}

// FavoriteStatusHandler says whether one program is pinned, for the heart
// toggle on a program card.
func FavoriteStatusHandler(favorites Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := favorites.FindOne(ctx, bson.M{"userId": userID, "programId": c.Param("id")}).Err()
		c.JSON(http.StatusOK, gin.H{"isFav": err == nil})
	}
}

// RemoveFavoriteHandler unpins a program. Removing one that was never pinned
// still answers ok.
func RemoveFavoriteHandler(favorites Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := favorites.DeleteOne(ctx, bson.M{"userId": userID, "programId": c.Param("id")}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove favorite."})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
