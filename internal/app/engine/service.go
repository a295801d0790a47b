// Package engine implements the donor matching and escalation engine:
// candidate search, ranking, the request/match state machine, and the
// notification fanout those transitions trigger.
//
// Every operation is an independent unit of work against the stores; no
// locks are held across storage calls, and all match-list consistency comes
// from conditional single-document writes in the request store.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/policy/requestpolicy"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/realtime"
	deliverystore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/deliveries"
	requeststore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/requests"
	userstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/users"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/geo"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/metrics"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/sanitize"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/blood"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// fanoutConcurrency bounds concurrent notification persists during match
// fanout.
const fanoutConcurrency = 8

// Config carries the engine's tunables.
type Config struct {
	SearchRadiusKm    float64 // candidate search radius
	CandidatePoolSize int64   // cap on donors fetched per search
	MatchListSize     int     // cap on matches kept per request
}

// DefaultConfig mirrors the production defaults: 50 km radius, pool of 50,
// top 20 matches.
func DefaultConfig() Config {
	return Config{SearchRadiusKm: 50, CandidatePoolSize: 50, MatchListSize: 20}
}

// Service is the matching engine.
type Service struct {
	cfg        Config
	users      *userstore.Store
	requests   *requeststore.Store
	deliveries *deliverystore.Store
	notifier   *Notifier
	met        *metrics.Metrics
	log        *zap.Logger
}

// New assembles the engine from its stores and collaborators.
func New(cfg Config, users *userstore.Store, requests *requeststore.Store, deliveries *deliverystore.Store, notifier *Notifier, met *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		cfg:        cfg,
		users:      users,
		requests:   requests,
		deliveries: deliveries,
		notifier:   notifier,
		met:        met,
		log:        log,
	}
}

// CreateInput is the payload for a new blood request.
type CreateInput struct {
	RecipientID string           `json:"recipient_id,omitempty"` // admins may create on behalf of a recipient
	BloodType   string           `json:"blood_type"`
	UnitsNeeded int              `json:"units_needed"`
	Urgency     string           `json:"urgency,omitempty"`
	Hospital    *models.Hospital `json:"hospital,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// Create validates and persists a new pending request, then immediately
// builds its match list and fans out donor alerts.
func (s *Service) Create(ctx context.Context, actor requestpolicy.Actor, in CreateInput) (*models.BloodRequest, error) {
	if !blood.ValidType(in.BloodType) {
		return nil, apperr.New(apperr.Validation, "a valid blood type is required")
	}
	if in.UnitsNeeded < 1 {
		return nil, apperr.New(apperr.Validation, "units needed must be a positive integer")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}
	switch urgency {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical:
	default:
		return nil, apperr.Newf(apperr.Validation, "invalid urgency %q", in.Urgency)
	}

	recipientID := actor.ID
	if actor.Role == models.RoleAdmin && in.RecipientID != "" {
		oid, err := primitive.ObjectIDFromHex(in.RecipientID)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid recipient id")
		}
		recipientID = oid
	}

	req := &models.BloodRequest{
		RecipientID: recipientID,
		BloodType:   in.BloodType,
		UnitsNeeded: in.UnitsNeeded,
		Urgency:     urgency,
		Notes:       sanitize.Text(in.Notes),
	}
	if in.Hospital != nil {
		req.Hospital = &models.Hospital{
			Name:     sanitize.Text(in.Hospital.Name),
			Address:  sanitize.Text(in.Hospital.Address),
			Location: in.Hospital.Location,
		}
	}

	if err := s.requests.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	if err := s.rematch(ctx, req); err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, req.ID)
}

// Rematch rebuilds a pending request's match list on demand, replacing the
// previous list entirely.
func (s *Service) Rematch(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) (*models.BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requestpolicy.CanManage(actor, req) {
		return nil, apperr.New(apperr.Forbidden, "not authorized to re-match this request")
	}
	if req.Status != models.RequestPending {
		return nil, apperr.New(apperr.Conflict, "only pending requests can be re-matched")
	}
	if err := s.rematch(ctx, req); err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, id)
}

// rematch runs candidate search, ranking, atomic persistence, and fanout for
// req. A request with no resolvable target point persists an empty match
// list; that is a degraded outcome, not an error.
func (s *Service) rematch(ctx context.Context, req *models.BloodRequest) error {
	start := time.Now()

	target, err := s.resolveTarget(ctx, req)
	if err != nil {
		return err
	}

	var matches []models.Match
	if target != nil {
		candidates, err := s.users.FindCandidateDonors(ctx, *target, s.cfg.SearchRadiusKm, s.cfg.CandidatePoolSize)
		if err != nil {
			return fmt.Errorf("candidate search: %w", err)
		}
		matches = rankCandidates(req.BloodType, target, candidates, s.cfg.MatchListSize)
	}

	if err := s.requests.ReplaceMatches(ctx, req.ID, matches); err != nil {
		return err
	}
	s.met.ObserveMatchBuild(target != nil, len(matches), time.Since(start))
	s.log.Info("match list built",
		zap.String("request_id", req.ID.Hex()),
		zap.String("blood_type", req.BloodType),
		zap.Int("matches", len(matches)),
		zap.Bool("located", target != nil))

	ev := realtime.Event{
		Title:    "Potential donation match",
		Message:  fmt.Sprintf("A recipient is requesting %s blood (%s urgency).", req.BloodType, req.Urgency),
		Category: models.CategoryAlert,
		Metadata: map[string]string{"request_id": req.ID.Hex()},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutConcurrency)
	for _, m := range matches {
		donorID := m.DonorID
		g.Go(func() error {
			s.notifier.NotifyUser(gctx, donorID, ev)
			return nil
		})
	}
	_ = g.Wait() // notifier never fails the transition

	return nil
}

// resolveTarget picks the search point: hospital location first, then the
// recipient's home location, else nil.
func (s *Service) resolveTarget(ctx context.Context, req *models.BloodRequest) (*models.GeoPoint, error) {
	if req.Hospital != nil && req.Hospital.Location.Valid() {
		return req.Hospital.Location, nil
	}
	recipient, err := s.users.GetByID(ctx, req.RecipientID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, nil
		}
		return nil, err
	}
	if recipient.Location.Valid() {
		return recipient.Location, nil
	}
	return nil, nil
}

// Get loads a request the actor is allowed to see.
func (s *Service) Get(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) (*models.BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := requestpolicy.CanAccess(ctx, s.deliveries, actor, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.Forbidden, "not authorized to access this request")
	}
	return req, nil
}

// ListParams narrows List output.
type ListParams struct {
	Status  string
	Urgency string
	Skip    int64
	Limit   int64
}

// List returns the requests visible to the actor: recipients see their own,
// donors see requests they are matched on, couriers see requests attached to
// their deliveries, admins see everything.
func (s *Service) List(ctx context.Context, actor requestpolicy.Actor, p ListParams) ([]models.BloodRequest, int64, error) {
	f := requeststore.ListFilter{Status: p.Status, Urgency: p.Urgency}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleRecipient:
		f.RecipientID = &actor.ID
	case models.RoleDonor:
		f.DonorID = &actor.ID
	case models.RoleCourier:
		ids, err := s.deliveries.IDsForCourier(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		if len(ids) == 0 {
			return []models.BloodRequest{}, 0, nil
		}
		f.DeliveryIDs = ids
	default:
		return nil, 0, apperr.New(apperr.Forbidden, "not authorized to list requests")
	}

	return s.requests.List(ctx, f, p.Skip, p.Limit)
}

// Accept records a donor's acceptance. First response wins: the underlying
// write succeeds only while the donor's match is still notified and no other
// donor has been accepted. On success the recipient and all admins are
// notified and the request is matched.
func (s *Service) Accept(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) (*models.BloodRequest, error) {
	if actor.Role != models.RoleDonor {
		return nil, apperr.New(apperr.Forbidden, "only donors can accept matches")
	}

	req, err := s.requests.Accept(ctx, id, actor.ID)
	if err != nil {
		s.met.IncMatchResponse(string(apperr.KindOf(err)))
		return nil, err
	}
	s.met.IncMatchResponse("accepted")

	donorName := "A donor"
	if donor, derr := s.users.GetByID(ctx, actor.ID); derr == nil {
		donorName = donor.FullName
	}

	meta := map[string]string{"request_id": req.ID.Hex(), "donor_id": actor.ID.Hex()}
	s.notifier.NotifyUser(ctx, req.RecipientID, realtime.Event{
		Title:    "Donor accepted request",
		Message:  fmt.Sprintf("%s has accepted your blood request.", donorName),
		Category: models.CategoryUpdate,
		Metadata: meta,
	})

	admins, err := s.users.ListAdminIDs(ctx)
	if err != nil {
		s.log.Warn("admin fanout skipped", zap.Error(err))
		return req, nil
	}
	adminEv := realtime.Event{
		Title:    "Donor match confirmed",
		Message:  fmt.Sprintf("%s accepted request %s.", donorName, req.ID.Hex()),
		Category: models.CategoryUpdate,
		Metadata: meta,
	}
	for _, adminID := range admins {
		s.notifier.NotifyUser(ctx, adminID, adminEv)
	}

	return req, nil
}

// Decline records a donor's refusal. The request's status is never changed
// and no re-matching is triggered.
func (s *Service) Decline(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) (*models.BloodRequest, error) {
	if actor.Role != models.RoleDonor {
		return nil, apperr.New(apperr.Forbidden, "only donors can decline matches")
	}

	req, err := s.requests.Decline(ctx, id, actor.ID)
	if err != nil {
		s.met.IncMatchResponse(string(apperr.KindOf(err)))
		return nil, err
	}
	s.met.IncMatchResponse("declined")
	return req, nil
}

// Escalate forces the request to critical urgency, broadcasts to every
// connected donor, and sends a durable alert to each donor already in the
// match list regardless of their match status. Idempotent on state; the
// escalation timestamp is refreshed every call.
func (s *Service) Escalate(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) (*models.BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requestpolicy.CanManage(actor, req) {
		return nil, apperr.New(apperr.Forbidden, "not authorized to escalate this request")
	}

	req, err = s.requests.Escalate(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.met.IncEscalation()
	s.log.Info("request escalated",
		zap.String("request_id", id.Hex()),
		zap.String("blood_type", req.BloodType))

	meta := map[string]string{"request_id": req.ID.Hex()}
	s.notifier.NotifyRole(models.RoleDonor, realtime.Event{
		Title:    "Emergency blood request",
		Message:  fmt.Sprintf("Immediate %s donation needed. Check assignments for details.", req.BloodType),
		Category: models.CategoryAlert,
		Metadata: meta,
	})
	for _, m := range req.Matches {
		s.notifier.NotifyUser(ctx, m.DonorID, realtime.Event{
			Title:    "Emergency escalation",
			Message:  fmt.Sprintf("Request %s has been escalated to critical. Immediate action required.", req.ID.Hex()),
			Category: models.CategoryAlert,
			Metadata: meta,
		})
	}

	return req, nil
}

// Cancel closes a request that has not yet entered transport.
func (s *Service) Cancel(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) (*models.BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requestpolicy.CanManage(actor, req) {
		return nil, apperr.New(apperr.Forbidden, "not authorized to cancel this request")
	}
	if req.Status == models.RequestInTransit {
		return nil, apperr.New(apperr.Conflict, "in-transit requests are cancelled through their delivery")
	}
	if err := s.requests.Cancel(ctx, id); err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, id)
}

// NearbyDonor is one row of the read-only candidate browse.
type NearbyDonor struct {
	ID         primitive.ObjectID `json:"id"`
	FullName   string             `json:"full_name"`
	BloodType  string             `json:"blood_type"`
	Score      float64            `json:"score"`
	DistanceKm *float64           `json:"distance_km,omitempty"`
}

// NearbyDonors lists compatible donors around the request's target point
// without mutating the match list. Returns an empty slice when no target
// point resolves.
func (s *Service) NearbyDonors(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) ([]NearbyDonor, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	target, err := s.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return []NearbyDonor{}, nil
	}

	candidates, err := s.users.FindCandidateDonors(ctx, *target, s.cfg.SearchRadiusKm, s.cfg.CandidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("candidate search: %w", err)
	}

	out := make([]NearbyDonor, 0, len(candidates))
	for _, donor := range candidates {
		if !blood.IsCompatible(donor.BloodType, req.BloodType) {
			continue
		}
		row := NearbyDonor{
			ID:        donor.ID,
			FullName:  donor.FullName,
			BloodType: donor.BloodType,
			Score:     blood.Score(donor.BloodType, req.BloodType),
		}
		if donor.Location.Valid() {
			km := geo.HaversineKm(target.Lng(), target.Lat(), donor.Location.Lng(), donor.Location.Lat())
			row.DistanceKm = &km
		}
		out = append(out, row)
	}
	return out, nil
}
