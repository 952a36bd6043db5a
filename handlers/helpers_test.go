package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"findyourprogram-api/middleware"
	"findyourprogram-api/models"
	"findyourprogram-api/payments"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memCollection mirrors the filter shapes the ledger issues; enough of a
// mongo collection for handler tests.
type memCollection struct {
	docs    []bson.M
	inserts int
}

func matchDoc(doc, filter bson.M) bool {
	for key, want := range filter {
		if key == "$or" {
			anyMatch := false
			for _, sub := range want.(bson.A) {
				if matchDoc(doc, sub.(bson.M)) {
					anyMatch = true
					break
				}
			}
			if !anyMatch {
				return false
			}
			continue
		}
		switch cond := want.(type) {
		case bson.M:
			for op, arg := range cond {
				switch op {
				case "$nin":
					for _, bad := range arg.(bson.A) {
						if doc[key] == bad {
							return false
						}
					}
				case "$ne":
					if doc[key] == arg {
						return false
					}
				case "$gte":
					have, ok1 := doc[key].(primitive.DateTime)
					limit, ok2 := arg.(primitive.DateTime)
					if !ok1 || !ok2 || have < limit {
						return false
					}
				default:
					panic("memCollection: unsupported operator " + op)
				}
			}
		default:
			if doc[key] != want {
				return false
			}
		}
	}
	return true
}

func (m *memCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	raw, err := bson.Marshal(document)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		doc["_id"] = id
	}
	m.docs = append(m.docs, doc)
	m.inserts++
	return &mongo.InsertOneResult{InsertedID: id}, nil
}

func (m *memCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	raw, err := bson.Marshal(filter)
	if err != nil {
		return nil, err
	}
	var f bson.M
	if err := bson.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	raw, err = bson.Marshal(update)
	if err != nil {
		return nil, err
	}
	var u bson.M
	if err := bson.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	set, _ := u["$set"].(bson.M)
	unset, _ := u["$unset"].(bson.M)
	for _, doc := range m.docs {
		if matchDoc(doc, f) {
			for k, v := range set {
				doc[k] = v
			}
			for k := range unset {
				delete(doc, k)
			}
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	if len(opts) > 0 && opts[0].Upsert != nil && *opts[0].Upsert {
		doc := bson.M{}
		for k, v := range f {
			if _, isOp := v.(bson.M); !isOp {
				doc[k] = v
			}
		}
		if onInsert, ok := u["$setOnInsert"].(bson.M); ok {
			for k, v := range onInsert {
				doc[k] = v
			}
		}
		for k, v := range set {
			doc[k] = v
		}
		id := primitive.NewObjectID()
		doc["_id"] = id
		m.docs = append(m.docs, doc)
		m.inserts++
		return &mongo.UpdateResult{UpsertedCount: 1, UpsertedID: id}, nil
	}
	return &mongo.UpdateResult{}, nil
}

func (m *memCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	raw, err := bson.Marshal(filter)
	if err != nil {
		return nil, err
	}
	var f bson.M
	if err := bson.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	for i, doc := range m.docs {
		if matchDoc(doc, f) {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (m *memCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	raw, err := bson.Marshal(filter)
	if err != nil {
		return 0, err
	}
	var f bson.M
	if err := bson.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	var n int64
	for _, doc := range m.docs {
		if matchDoc(doc, f) {
			n++
		}
	}
	return n, nil
}

func (m *memCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	raw, err := bson.Marshal(filter)
	if err != nil {
		return nil, err
	}
	var f bson.M
	if err := bson.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	matched := []interface{}{}
	for _, doc := range m.docs {
		if matchDoc(doc, f) {
			matched = append(matched, doc)
		}
	}
	return mongo.NewCursorFromDocuments(matched, nil, nil)
}

// Aggregate understands just the $match, $project and $sample stages the
// handlers build.
func (m *memCollection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	stages, ok := pipeline.(mongo.Pipeline)
	if !ok {
		panic("memCollection: unsupported pipeline type")
	}

	current := make([]bson.M, len(m.docs))
	copy(current, m.docs)

	for _, stage := range stages {
		raw, err := bson.Marshal(stage)
		if err != nil {
			return nil, err
		}
		var s bson.M
		if err := bson.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		for name, spec := range s {
			switch name {
			case "$match":
				kept := []bson.M{}
				for _, doc := range current {
					if matchDoc(doc, spec.(bson.M)) {
						kept = append(kept, doc)
					}
				}
				current = kept
			case "$project":
				fields := spec.(bson.M)
				projected := make([]bson.M, 0, len(current))
				for _, doc := range current {
					out := bson.M{"_id": doc["_id"]}
					for field := range fields {
						if v, ok := doc[field]; ok {
							out[field] = v
						}
					}
					projected = append(projected, out)
				}
				current = projected
			case "$sample":
				size := int(spec.(bson.M)["size"].(int32))
				if len(current) > size {
					current = current[:size]
				}
			default:
				panic("memCollection: unsupported stage " + name)
			}
		}
	}

	docs := make([]interface{}, 0, len(current))
	for _, doc := range current {
		docs = append(docs, doc)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (m *memCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	raw, err := bson.Marshal(filter)
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	var f bson.M
	if err := bson.Unmarshal(raw, &f); err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	for _, doc := range m.docs {
		if matchDoc(doc, f) {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

type stubBroker struct {
	openErr     error
	opens       int
	retrieveErr error
	outcome     *payments.Outcome
	retrieves   int
}

func (b *stubBroker) OpenIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*payments.IntentHandle, error) {
	b.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	return &payments.IntentHandle{
		ID:           fmt.Sprintf("pi_test_%d", b.opens),
		ClientSecret: "cs_test_secret",
		Status:       models.StatusRequiresAction,
	}, nil
}

func (b *stubBroker) RetrieveOutcome(ctx context.Context, processorIntentID string) (*payments.Outcome, error) {
	b.retrieves++
	if b.retrieveErr != nil {
		return nil, b.retrieveErr
	}
	if b.outcome != nil {
		return b.outcome, nil
	}
	return &payments.Outcome{Status: models.StatusSucceeded}, nil
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload map[string]interface{}) *httptest.ResponseRecorder {
	return request(t, router, http.MethodPost, path, payload, "")
}

// request issues one in-process call; cookie, when set, is sent as the auth
// cookie so session-dependent handlers see a real token.
func request(t *testing.T, router *gin.Engine, method, path string, payload map[string]interface{}, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// asClaim wires a pre-verified session into the request context, standing in
// for AuthMiddleware on routes that read the claim.
func asClaim(claim *middleware.Claim) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("claim", claim)
		c.Set("userId", claim.UserID)
		c.Next()
	}
}

func signedToken(t *testing.T, user models.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   user.ID.Hex(),
		"username": user.Username,
		"email":    user.Email,
		"isAdmin":  user.IsAdmin,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(middleware.GetSecret())
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}
