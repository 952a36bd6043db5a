package handlers

import (
	"context"
	"net/http"

	"findyourprogram-api/middleware"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the slice of *mongo.Collection the route handlers use.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// currentUser pulls the verified claim set by AuthMiddleware and resolves the
// account id. Aborts with 401 when the route was wired without the middleware.
func currentUser(c *gin.Context) (*middleware.Claim, primitive.ObjectID, bool) {
	v, ok := c.Get("claim")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return nil, primitive.NilObjectID, false
	}
	claim, ok := v.(*middleware.Claim)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return nil, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(claim.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return nil, primitive.NilObjectID, false
	}
	return claim, userID, true
}
