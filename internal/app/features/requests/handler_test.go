package requests_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/engine"
	requestsfeature "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/requests"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/realtime"
	deliverystore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/deliveries"
	notificationstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/notifications"
	requeststore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/requests"
	userstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/users"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/auth"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/indexes"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/testutil"
)

const (
	testLng = -92.3341
	testLat = 38.9517
)

type env struct {
	router chi.Router
	insert func(models.User) models.User
}

// newEnv builds the request routes against a real engine, with a middleware
// that injects u as the authenticated caller.
func newEnv(t *testing.T, u models.User) (*env, models.User) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	users := userstore.New(db)
	requests := requeststore.New(db)
	deliveries := deliverystore.New(db)
	notifications := notificationstore.New(db)

	logger := zap.NewNop()
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	notifier := engine.NewNotifier(notifications, hub, nil, logger)
	eng := engine.New(engine.DefaultConfig(), users, requests, deliveries, notifier, nil, logger)

	caller := testutil.InsertUser(t, db, u)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, auth.WithTestUser(req, &auth.SessionUser{
				ID:   caller.ID.Hex(),
				Role: caller.Role,
			}))
		})
	})
	handler := requestsfeature.NewHandler(eng, logger)
	r.Route("/requests", handler.MountRoutes)

	e := &env{
		router: r,
		insert: func(u models.User) models.User {
			return testutil.InsertUser(t, db, u)
		},
	}
	return e, caller
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreate_ReturnsRequestWithMatches(t *testing.T) {
	e, _ := newEnv(t, testutil.NewRecipient("rec", testLng, testLat))
	e.insert(testutil.NewDonor("donor", "O-", testLng+0.01, testLat))

	rec := e.do("POST", "/requests", `{
		"blood_type": "O-",
		"units_needed": 1,
		"urgency": "high",
		"hospital": {"name": "General", "location": {"type":"Point","coordinates":[-92.3341,38.9517]}}
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}

	var got models.BloodRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if got.Status != models.RequestPending {
		t.Errorf("status: got %q, want %q", got.Status, models.RequestPending)
	}
	if len(got.Matches) != 1 {
		t.Errorf("matches: got %d, want 1", len(got.Matches))
	}
}

func TestCreate_DonorRoleForbidden(t *testing.T) {
	e, _ := newEnv(t, testutil.NewDonor("donor", "A+", testLng, testLat))

	rec := e.do("POST", "/requests", `{"blood_type":"A+","units_needed":1}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCreate_InvalidBodyRejected(t *testing.T) {
	e, _ := newEnv(t, testutil.NewRecipient("rec", testLng, testLat))

	rec := e.do("POST", "/requests", `{"blood_type":"A+","units_needed":1,"surprise":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGet_InvalidIDIsValidationError(t *testing.T) {
	e, _ := newEnv(t, testutil.NewRecipient("rec", testLng, testLat))

	rec := e.do("GET", "/requests/not-an-id", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestList_ReturnsEnvelope(t *testing.T) {
	e, _ := newEnv(t, testutil.NewRecipient("rec", testLng, testLat))

	if rec := e.do("POST", "/requests", `{"blood_type":"B+","units_needed":2}`); rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec := e.do("GET", "/requests?status=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Items []models.BloodRequest `json:"items"`
		Meta  struct {
			Page  int   `json:"page"`
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Meta.Total != 1 || len(resp.Items) != 1 {
		t.Errorf("expected one request, got total=%d len=%d", resp.Meta.Total, len(resp.Items))
	}
	if resp.Meta.Page != 1 {
		t.Errorf("page: got %d, want 1", resp.Meta.Page)
	}
}

func TestEscalate_ByOwner(t *testing.T) {
	e, _ := newEnv(t, testutil.NewRecipient("rec", testLng, testLat))

	rec := e.do("POST", "/requests", `{"blood_type":"A-","units_needed":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d", rec.Code)
	}
	var created models.BloodRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse response: %v", err)
	}

	rec = e.do("POST", "/requests/"+created.ID.Hex()+"/escalate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("escalate: got %d (%s)", rec.Code, rec.Body.String())
	}
	var got models.BloodRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if got.Urgency != models.UrgencyCritical {
		t.Errorf("urgency: got %q, want %q", got.Urgency, models.UrgencyCritical)
	}
}

func TestAccept_RoleGateBlocksRecipients(t *testing.T) {
	e, _ := newEnv(t, testutil.NewRecipient("rec", testLng, testLat))

	rec := e.do("POST", "/requests", `{"blood_type":"A+","units_needed":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d", rec.Code)
	}
	var created models.BloodRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse response: %v", err)
	}

	rec = e.do("POST", "/requests/"+created.ID.Hex()+"/accept", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("accept as recipient: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}
