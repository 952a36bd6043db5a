package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"findyourprogram-api/handlers"
	"findyourprogram-api/ledger"
	"findyourprogram-api/models"
)

func sponsorshipRouter(broker *stubBroker) (*gin.Engine, *memCollection, *memCollection) {
	sponsorships := &memCollection{}
	pays := &memCollection{}
	co := ledger.NewCoordinator(sponsorships, pays, broker, models.SourceSponsorship)

	router := gin.New()
	router.POST("/api/sponsorships/initiate", handlers.InitiateSponsorshipHandler(co))
	router.POST("/api/sponsorships/complete", handlers.CompleteSponsorshipHandler(co))
	return router, sponsorships, pays
}

func validSponsorshipBody() map[string]interface{} {
	return map[string]interface{}{
		"uniName":        "Carleton University",
		"programName":    "Software Engineering",
		"departmentName": "Systems and Computer Engineering",
		"email":          "outreach@example.edu",
		"phone":          "(613) 555-0199",
		"message":        "Please feature our program.",
		"amountCents":    20000,
	}
}

func TestInitiateSponsorshipFixedAmount(t *testing.T) {
	for _, bad := range []interface{}{19999, 20001, 0, -20000, 200.5} {
		broker := &stubBroker{}
		router, sponsorships, pays := sponsorshipRouter(broker)

		body := validSponsorshipBody()
		body["amountCents"] = bad
		w := postJSON(t, router, "/api/sponsorships/initiate", body)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("amountCents=%v: status = %d, want 400", bad, w.Code)
		}
		if w.Body.String() != "Invalid amount." {
			t.Errorf("amountCents=%v: body = %q", bad, w.Body.String())
		}
		if sponsorships.inserts != 0 || pays.inserts != 0 || broker.opens != 0 {
			t.Errorf("amountCents=%v: nothing may be written or opened", bad)
		}
	}

	// exactly 20000 goes through
	router, _, _ := sponsorshipRouter(&stubBroker{})
	w := postJSON(t, router, "/api/sponsorships/initiate", validSponsorshipBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		SponsorshipID string `json:"sponsorshipId"`
		PaymentID     string `json:"paymentId"`
		ClientSecret  string `json:"clientSecret"`
		AmountCents   int64  `json:"amountCents"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AmountCents != models.SponsorshipAmountCents {
		t.Errorf("amountCents = %d", resp.AmountCents)
	}
	if resp.SponsorshipID == "" || resp.PaymentID == "" || resp.ClientSecret == "" {
		t.Errorf("response incomplete: %+v", resp)
	}
}

func TestSponsorshipValidityWindow(t *testing.T) {
	router, sponsorships, _ := sponsorshipRouter(&stubBroker{})

	w := postJSON(t, router, "/api/sponsorships/initiate", validSponsorshipBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(sponsorships.docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(sponsorships.docs))
	}

	doc := sponsorships.docs[0]
	startsAt, ok := doc["startsAt"].(primitive.DateTime)
	if !ok {
		t.Fatalf("startsAt = %T", doc["startsAt"])
	}
	expiresAt, ok := doc["expiresAt"].(primitive.DateTime)
	if !ok {
		t.Fatalf("expiresAt = %T", doc["expiresAt"])
	}

	if got := expiresAt.Time().Sub(startsAt.Time()); got != models.SponsorshipWindow {
		t.Errorf("window = %v, want exactly %v", got, models.SponsorshipWindow)
	}
}

func TestCompleteSponsorshipMirrorsStatus(t *testing.T) {
	broker := &stubBroker{}
	router, sponsorships, pays := sponsorshipRouter(broker)

	w := postJSON(t, router, "/api/sponsorships/initiate", validSponsorshipBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("initiate status = %d", w.Code)
	}
	var created struct {
		SponsorshipID string `json:"sponsorshipId"`
		PaymentID     string `json:"paymentId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	w = postJSON(t, router, "/api/sponsorships/complete", map[string]interface{}{
		"sponsorshipId":   created.SponsorshipID,
		"paymentId":       created.PaymentID,
		"outcome":         "succeeded",
		"paymentIntentId": "pi_test_1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body = %s", w.Code, w.Body.String())
	}

	if got := sponsorships.docs[0]["status"]; got != string(models.StatusSucceeded) {
		t.Errorf("sponsorship status = %v", got)
	}
	if got := pays.docs[0]["status"]; got != string(models.StatusSucceeded) {
		t.Errorf("payment status = %v", got)
	}
	if broker.retrieves != 1 {
		t.Errorf("retrieves = %d, want 1", broker.retrieves)
	}
}

// The public banner must only surface paid, still-running sponsorships.
func TestActiveSponsorsFiltersSettledAndCurrent(t *testing.T) {
	sponsorships := &memCollection{}
	now := time.Now()
	seed := func(uniName string, status models.PaymentStatus, expiresAt time.Time) {
		if _, err := sponsorships.InsertOne(context.Background(), models.Sponsorship{
			CreatedAt:      now,
			UniName:        uniName,
			ProgramName:    "Computer Science",
			DepartmentName: "Engineering",
			Email:          "sponsor@example.com",
			Phone:          "514-555-0101",
			Message:        "Go team",
			AmountCents:    models.SponsorshipAmountCents,
			Currency:       "cad",
			Status:         status,
			StartsAt:       now,
			ExpiresAt:      expiresAt,
		}); err != nil {
			t.Fatal(err)
		}
	}
	seed("Current U", models.StatusSucceeded, now.Add(48*time.Hour))
	seed("Expired U", models.StatusSucceeded, now.Add(-time.Hour))
	seed("Unpaid U", models.StatusFailed, now.Add(48*time.Hour))

	router := gin.New()
	router.GET("/api/sponsorships/active", handlers.ActiveSponsorsHandler(sponsorships))

	w := request(t, router, http.MethodGet, "/api/sponsorships/active", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Sponsors []map[string]interface{} `json:"sponsors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Sponsors) != 1 {
		t.Fatalf("sponsors = %d, want 1: %s", len(body.Sponsors), w.Body.String())
	}
	sponsor := body.Sponsors[0]
	if sponsor["uniName"] != "Current U" {
		t.Errorf("uniName = %v, want Current U", sponsor["uniName"])
	}
	// contact details stay out of the public payload
	if _, leaked := sponsor["email"]; leaked {
		t.Error("sponsor email leaked into public banner")
	}
	if _, leaked := sponsor["phone"]; leaked {
		t.Error("sponsor phone leaked into public banner")
	}
}

func TestCompleteSponsorshipUnknownPayment(t *testing.T) {
	router, _, _ := sponsorshipRouter(&stubBroker{})

	w := postJSON(t, router, "/api/sponsorships/complete", map[string]interface{}{
		"sponsorshipId": primitive.NewObjectID().Hex(),
		"paymentId":     primitive.NewObjectID().Hex(),
		"outcome":       "succeeded",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}
