package engine_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/engine"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/policy/requestpolicy"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/realtime"
	deliverystore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/deliveries"
	notificationstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/notifications"
	requeststore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/requests"
	userstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/users"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/indexes"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/testutil"
)

// Downtown and suburbs of a single city; all within a 50 km radius of the
// hospital fixture below.
const (
	hospitalLng = -92.3341
	hospitalLat = 38.9517
)

type harness struct {
	db            *mongo.Database
	users         *userstore.Store
	requests      *requeststore.Store
	deliveries    *deliverystore.Store
	notifications *notificationstore.Store
	hub           *realtime.Hub
	engine        *engine.Service
}

func setup(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	h := &harness{
		db:            db,
		users:         userstore.New(db),
		requests:      requeststore.New(db),
		deliveries:    deliverystore.New(db),
		notifications: notificationstore.New(db),
		hub:           realtime.NewHub(),
	}
	t.Cleanup(h.hub.Close)

	logger := zap.NewNop()
	notifier := engine.NewNotifier(h.notifications, h.hub, nil, logger)
	h.engine = engine.New(engine.DefaultConfig(), h.users, h.requests, h.deliveries, notifier, nil, logger)
	return h
}

func actorFor(u models.User) requestpolicy.Actor {
	return requestpolicy.Actor{ID: u.ID, Role: u.Role}
}

func hospital() *models.Hospital {
	return &models.Hospital{
		Name:     "University Hospital",
		Location: models.NewGeoPoint(hospitalLng, hospitalLat),
	}
}

func (h *harness) notificationCount(t *testing.T, userID primitive.ObjectID) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, total, err := h.notifications.ListByUser(ctx, userID, 0, 100)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	return total
}

func TestService_Create_BuildsRankedMatchList(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	exact := testutil.InsertUser(t, h.db, testutil.NewDonor("exact", "A+", hospitalLng+0.01, hospitalLat))
	universal := testutil.InsertUser(t, h.db, testutil.NewDonor("universal", "O-", hospitalLng+0.02, hospitalLat))
	incompatible := testutil.InsertUser(t, h.db, testutil.NewDonor("incompatible", "AB+", hospitalLng+0.01, hospitalLat))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType:   "A+",
		UnitsNeeded: 2,
		Hospital:    hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if req.Status != models.RequestPending {
		t.Errorf("status: got %q, want %q", req.Status, models.RequestPending)
	}
	if len(req.Matches) != 2 {
		t.Fatalf("matches: got %d, want 2", len(req.Matches))
	}
	// Exact A+ (1.0) outranks O- universal donor (0.85).
	if req.Matches[0].DonorID != exact.ID {
		t.Errorf("first match: got %s, want exact donor", req.Matches[0].DonorID.Hex())
	}
	if req.Matches[1].DonorID != universal.ID {
		t.Errorf("second match: got %s, want universal donor", req.Matches[1].DonorID.Hex())
	}
	if req.MatchFor(incompatible.ID) != nil {
		t.Error("incompatible donor must not be matched")
	}
	for _, m := range req.Matches {
		if m.Status != models.MatchNotified {
			t.Errorf("match status: got %q, want %q", m.Status, models.MatchNotified)
		}
		if m.DistanceKm == nil {
			t.Error("expected distance for located donor")
		}
	}

	// Each matched donor got a durable alert.
	if n := h.notificationCount(t, exact.ID); n != 1 {
		t.Errorf("exact donor notifications: got %d, want 1", n)
	}
	if n := h.notificationCount(t, incompatible.ID); n != 0 {
		t.Errorf("incompatible donor notifications: got %d, want 0", n)
	}
}

func TestService_Create_NoTargetPointYieldsEmptyMatches(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Recipient without a home location, request without a hospital point.
	recipient := testutil.InsertUser(t, h.db, models.User{
		FullName: "nowhere",
		Email:    "nowhere@example.com",
		Role:     models.RoleRecipient,
	})

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType:   "B-",
		UnitsNeeded: 1,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(req.Matches) != 0 {
		t.Errorf("expected empty match list, got %d", len(req.Matches))
	}
}

func TestService_Create_FallsBackToRecipientLocation(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	donor := testutil.InsertUser(t, h.db, testutil.NewDonor("near-home", "O-", hospitalLng+0.01, hospitalLat))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType:   "O-",
		UnitsNeeded: 1,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if req.MatchFor(donor.ID) == nil {
		t.Error("expected donor near recipient's home to be matched")
	}
}

func TestService_Create_RejectsInvalidInput(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))

	cases := []struct {
		name string
		in   engine.CreateInput
	}{
		{"bad blood type", engine.CreateInput{BloodType: "Z+", UnitsNeeded: 1}},
		{"zero units", engine.CreateInput{BloodType: "A+", UnitsNeeded: 0}},
		{"bad urgency", engine.CreateInput{BloodType: "A+", UnitsNeeded: 1, Urgency: "now"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.engine.Create(ctx, actorFor(recipient), tc.in)
			if apperr.KindOf(err) != apperr.Validation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_Rematch_ReplacesMatchListEntirely(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	first := testutil.InsertUser(t, h.db, testutil.NewDonor("first", "A+", hospitalLng+0.01, hospitalLat))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(req.Matches) != 1 || req.Matches[0].DonorID != first.ID {
		t.Fatalf("precondition: expected only the first donor matched, got %d matches", len(req.Matches))
	}

	// The first donor drops out of the pool and a new one appears.
	if _, err := h.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": first.ID}, bson.M{"$set": bson.M{"available": false}}); err != nil {
		t.Fatalf("update donor availability: %v", err)
	}
	second := testutil.InsertUser(t, h.db, testutil.NewDonor("second", "A+", hospitalLng+0.02, hospitalLat))

	got, err := h.engine.Rematch(ctx, actorFor(recipient), req.ID)
	if err != nil {
		t.Fatalf("Rematch failed: %v", err)
	}
	if len(got.Matches) != 1 {
		t.Fatalf("matches after rematch: got %d, want 1", len(got.Matches))
	}
	if got.Matches[0].DonorID != second.ID {
		t.Errorf("first match: got %s, want the new donor", got.Matches[0].DonorID.Hex())
	}
	if got.MatchFor(first.ID) != nil {
		t.Error("stale match for the removed donor survived the rebuild")
	}
	if n := h.notificationCount(t, second.ID); n != 1 {
		t.Errorf("new donor notifications: got %d, want 1", n)
	}

	// Re-matching with an unchanged pool must not accumulate duplicates.
	got, err = h.engine.Rematch(ctx, actorFor(recipient), req.ID)
	if err != nil {
		t.Fatalf("second Rematch failed: %v", err)
	}
	if len(got.Matches) != 1 {
		t.Fatalf("matches after repeat rematch: got %d, want 1", len(got.Matches))
	}
	seen := map[primitive.ObjectID]bool{}
	for _, m := range got.Matches {
		if seen[m.DonorID] {
			t.Fatalf("duplicate match for donor %s", m.DonorID.Hex())
		}
		seen[m.DonorID] = true
	}
}

func TestService_Accept_NotifiesRecipientAndAdmins(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	donor := testutil.InsertUser(t, h.db, testutil.NewDonor("donor", "A+", hospitalLng+0.01, hospitalLat))
	admin := testutil.InsertUser(t, h.db, testutil.NewAdmin("admin"))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := h.engine.Accept(ctx, actorFor(donor), req.ID)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if got.Status != models.RequestMatched {
		t.Errorf("status: got %q, want %q", got.Status, models.RequestMatched)
	}

	if n := h.notificationCount(t, recipient.ID); n != 1 {
		t.Errorf("recipient notifications: got %d, want 1", n)
	}
	if n := h.notificationCount(t, admin.ID); n != 1 {
		t.Errorf("admin notifications: got %d, want 1", n)
	}
}

func TestService_Accept_RequiresDonorRole(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = h.engine.Accept(ctx, actorFor(recipient), req.ID)
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_Escalate_AlertsMatchedDonors(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	donor := testutil.InsertUser(t, h.db, testutil.NewDonor("donor", "O-", hospitalLng+0.01, hospitalLat))

	// A connected donor of the role also receives the live broadcast.
	sub := h.hub.Subscribe(primitive.NewObjectID().Hex(), models.RoleDonor)
	defer h.hub.Unsubscribe(sub)

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "O-", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before := h.notificationCount(t, donor.ID)

	got, err := h.engine.Escalate(ctx, actorFor(recipient), req.ID)
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}
	if got.Urgency != models.UrgencyCritical {
		t.Errorf("urgency: got %q, want %q", got.Urgency, models.UrgencyCritical)
	}
	if got.EmergencyEscalatedAt == nil {
		t.Error("expected escalation timestamp")
	}

	if after := h.notificationCount(t, donor.ID); after != before+1 {
		t.Errorf("matched donor escalation alerts: got %d, want %d", after, before+1)
	}

	select {
	case ev := <-sub.Events():
		if ev.Category != models.CategoryAlert {
			t.Errorf("broadcast category: got %q, want %q", ev.Category, models.CategoryAlert)
		}
	default:
		t.Error("expected role broadcast on the donor stream")
	}
}

func TestService_Escalate_OnlyOwnerOrAdmin(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	stranger := testutil.InsertUser(t, h.db, testutil.NewRecipient("other", hospitalLng, hospitalLat))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = h.engine.Escalate(ctx, actorFor(stranger), req.ID)
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_DeliveryLifecycle(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	donor := testutil.InsertUser(t, h.db, testutil.NewDonor("donor", "A+", hospitalLng+0.01, hospitalLat))
	admin := testutil.InsertUser(t, h.db, testutil.NewAdmin("admin"))
	courier := testutil.InsertUser(t, h.db, testutil.NewCourier("courier"))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := h.engine.Accept(ctx, actorFor(donor), req.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	d, err := h.engine.CreateDelivery(ctx, actorFor(admin), engine.CreateDeliveryInput{
		RequestID: req.ID.Hex(),
		CourierID: courier.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateDelivery failed: %v", err)
	}
	if d.Status != models.DeliveryScheduled {
		t.Errorf("delivery status: got %q, want %q", d.Status, models.DeliveryScheduled)
	}
	if d.DonorID != donor.ID || d.RecipientID != recipient.ID {
		t.Error("delivery parties do not match the accepted match")
	}

	got, err := h.requests.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.RequestInTransit {
		t.Errorf("request status: got %q, want %q", got.Status, models.RequestInTransit)
	}
	if n := h.notificationCount(t, courier.ID); n != 1 {
		t.Errorf("courier notifications: got %d, want 1", n)
	}

	if _, err := h.engine.UpdateDeliveryStatus(ctx, actorFor(courier), d.ID, engine.DeliveryStatusInput{
		Status: models.DeliveryPickedUp,
	}); err != nil {
		t.Fatalf("UpdateDeliveryStatus picked_up failed: %v", err)
	}
	if _, err := h.engine.UpdateDeliveryStatus(ctx, actorFor(courier), d.ID, engine.DeliveryStatusInput{
		Status: models.DeliveryDelivered,
	}); err != nil {
		t.Fatalf("UpdateDeliveryStatus delivered failed: %v", err)
	}

	got, err = h.requests.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.RequestCompleted {
		t.Errorf("request status: got %q, want %q", got.Status, models.RequestCompleted)
	}

	u, err := h.users.GetByID(ctx, donor.ID)
	if err != nil {
		t.Fatalf("GetByID donor failed: %v", err)
	}
	if u.Donor == nil || u.Donor.TotalDonations != 1 {
		t.Errorf("donor donation count: got %+v, want 1", u.Donor)
	}
	if u.Donor != nil && u.Donor.LastDonationDate == nil {
		t.Error("expected last donation date to be stamped")
	}
}

func TestService_UpdateDeliveryStatus_WrongCourierForbidden(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	donor := testutil.InsertUser(t, h.db, testutil.NewDonor("donor", "A+", hospitalLng+0.01, hospitalLat))
	admin := testutil.InsertUser(t, h.db, testutil.NewAdmin("admin"))
	courier := testutil.InsertUser(t, h.db, testutil.NewCourier("courier"))
	other := testutil.InsertUser(t, h.db, testutil.NewCourier("other"))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := h.engine.Accept(ctx, actorFor(donor), req.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	d, err := h.engine.CreateDelivery(ctx, actorFor(admin), engine.CreateDeliveryInput{
		RequestID: req.ID.Hex(), CourierID: courier.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateDelivery failed: %v", err)
	}

	_, err = h.engine.UpdateDeliveryStatus(ctx, actorFor(other), d.ID, engine.DeliveryStatusInput{
		Status: models.DeliveryPickedUp,
	})
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden for another courier, got %v", err)
	}
}

func TestService_UpdateDeliveryStatus_CannotMoveBackwards(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	donor := testutil.InsertUser(t, h.db, testutil.NewDonor("donor", "A+", hospitalLng+0.01, hospitalLat))
	admin := testutil.InsertUser(t, h.db, testutil.NewAdmin("admin"))
	courier := testutil.InsertUser(t, h.db, testutil.NewCourier("courier"))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := h.engine.Accept(ctx, actorFor(donor), req.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	d, err := h.engine.CreateDelivery(ctx, actorFor(admin), engine.CreateDeliveryInput{
		RequestID: req.ID.Hex(), CourierID: courier.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateDelivery failed: %v", err)
	}
	if _, err := h.engine.UpdateDeliveryStatus(ctx, actorFor(courier), d.ID, engine.DeliveryStatusInput{
		Status: models.DeliveryPickedUp,
	}); err != nil {
		t.Fatalf("UpdateDeliveryStatus picked_up failed: %v", err)
	}

	// Deliveries start scheduled; it is not a reportable status, so a
	// picked_up delivery cannot be moved back.
	_, err = h.engine.UpdateDeliveryStatus(ctx, actorFor(courier), d.ID, engine.DeliveryStatusInput{
		Status: models.DeliveryScheduled,
	})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected validation error reporting scheduled, got %v", err)
	}

	got, err := h.deliveries.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.DeliveryPickedUp {
		t.Errorf("delivery status: got %q, want %q", got.Status, models.DeliveryPickedUp)
	}
}

func TestService_NearbyDonors_DoesNotMutateMatches(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	testutil.InsertUser(t, h.db, testutil.NewDonor("donor", "O-", hospitalLng+0.01, hospitalLat))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "AB-", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before := len(req.Matches)

	donors, err := h.engine.NearbyDonors(ctx, actorFor(recipient), req.ID)
	if err != nil {
		t.Fatalf("NearbyDonors failed: %v", err)
	}
	if len(donors) != 1 {
		t.Fatalf("nearby donors: got %d, want 1", len(donors))
	}
	if donors[0].DistanceKm == nil {
		t.Error("expected distance for located donor")
	}

	got, err := h.requests.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Matches) != before {
		t.Errorf("match list changed: got %d, want %d", len(got.Matches), before)
	}
}

func TestService_List_ScopesByRole(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	otherRecipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("other", hospitalLng, hospitalLat))
	donor := testutil.InsertUser(t, h.db, testutil.NewDonor("donor", "A+", hospitalLng+0.01, hospitalLat))
	admin := testutil.InsertUser(t, h.db, testutil.NewAdmin("admin"))

	if _, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := h.engine.Create(ctx, actorFor(otherRecipient), engine.CreateInput{
		BloodType: "B+", UnitsNeeded: 1,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	cases := []struct {
		name  string
		actor requestpolicy.Actor
		want  int64
	}{
		{"recipient sees own", actorFor(recipient), 1},
		{"donor sees matched", actorFor(donor), 1},
		{"admin sees all", actorFor(admin), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, total, err := h.engine.List(ctx, tc.actor, engine.ListParams{Limit: 20})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tc.want {
				t.Errorf("total: got %d, want %d", total, tc.want)
			}
		})
	}
}

func TestService_Get_DonorOutsideMatchListForbidden(t *testing.T) {
	h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recipient := testutil.InsertUser(t, h.db, testutil.NewRecipient("rec", hospitalLng, hospitalLat))
	outsider := testutil.InsertUser(t, h.db, testutil.NewDonor("far", "A+", hospitalLng+3, hospitalLat+3))

	req, err := h.engine.Create(ctx, actorFor(recipient), engine.CreateInput{
		BloodType: "A+", UnitsNeeded: 1, Hospital: hospital(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = h.engine.Get(ctx, actorFor(outsider), req.ID)
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden for unmatched donor, got %v", err)
	}
}
