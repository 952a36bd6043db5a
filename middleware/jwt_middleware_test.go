package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestVerifyTokenUniformRejection(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	LoadSecret()

	userID := primitive.NewObjectID().Hex()

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not.a.jwt"},
		{"wrong key", signToken(t, []byte("another-secret"), jwt.MapClaims{"userId": userID, "exp": time.Now().Add(time.Hour).Unix()})},
		{"expired", signToken(t, []byte("test-secret"), jwt.MapClaims{"userId": userID, "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no subject", signToken(t, []byte("test-secret"), jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
		{"bad subject", signToken(t, []byte("test-secret"), jwt.MapClaims{"userId": "not-an-object-id", "exp": time.Now().Add(time.Hour).Unix()})},
	}

	for _, tc := range cases {
		claim, err := VerifyToken(tc.token)
		if !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("%s: err = %v, want ErrUnauthenticated", tc.name, err)
		}
		if claim != nil {
			t.Errorf("%s: claim = %+v, want nil (no detail may leak)", tc.name, claim)
		}
	}
}

func TestVerifyTokenCarriesClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	LoadSecret()

	userID := primitive.NewObjectID().Hex()
	tokenString := signToken(t, []byte("test-secret"), jwt.MapClaims{
		"userId":   userID,
		"username": "ada",
		"email":    "ada@example.com",
		"isAdmin":  true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	claim, err := VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claim.UserID != userID {
		t.Errorf("UserID = %q", claim.UserID)
	}
	if claim.Username != "ada" || claim.Email != "ada@example.com" {
		t.Errorf("claims = %+v", claim)
	}
	if !claim.IsAdmin {
		t.Error("IsAdmin lost in transit")
	}
}

func TestVerifyTokenRejectsWrongAlgorithm(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	LoadSecret()

	// alg "none" style tokens must not slip through the HMAC check
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": primitive.NewObjectID().Hex(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := VerifyToken(signed); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}
