package engine

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/policy/requestpolicy"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/realtime"
	deliverystore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/deliveries"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// CreateDeliveryInput assigns a courier to a matched request.
type CreateDeliveryInput struct {
	RequestID  string     `json:"request_id"`
	CourierID  string     `json:"courier_id"`
	PickupETA  *time.Time `json:"pickup_eta,omitempty"`
	DropoffETA *time.Time `json:"dropoff_eta,omitempty"`
}

// CreateDelivery schedules transport for a matched request. Admin only: the
// request must have an accepted donor and no delivery yet. The parent
// request moves to in_transit and the courier, donor, and recipient are
// notified.
func (s *Service) CreateDelivery(ctx context.Context, actor requestpolicy.Actor, in CreateDeliveryInput) (*models.Delivery, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperr.New(apperr.Forbidden, "only admins can schedule deliveries")
	}

	requestID, err := primitive.ObjectIDFromHex(in.RequestID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid request id")
	}
	courierID, err := primitive.ObjectIDFromHex(in.CourierID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid courier id")
	}

	courier, err := s.users.GetByID(ctx, courierID)
	if err != nil {
		return nil, err
	}
	if courier.Role != models.RoleCourier {
		return nil, apperr.New(apperr.Validation, "assignee is not a courier")
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestMatched {
		return nil, apperr.New(apperr.Conflict, "request has no confirmed donor to transport from")
	}
	accepted := req.AcceptedMatch()
	if accepted == nil {
		return nil, apperr.New(apperr.Conflict, "request has no accepted match")
	}

	d := &models.Delivery{
		RequestID:   req.ID,
		DonorID:     accepted.DonorID,
		RecipientID: req.RecipientID,
		CourierID:   courierID,
		PickupETA:   in.PickupETA,
		DropoffETA:  in.DropoffETA,
	}
	if err := s.deliveries.Insert(ctx, d); err != nil {
		return nil, fmt.Errorf("insert delivery: %w", err)
	}
	if err := s.requests.AttachDelivery(ctx, req.ID, d.ID); err != nil {
		return nil, err
	}
	s.log.Info("delivery scheduled",
		zap.String("delivery_id", d.ID.Hex()),
		zap.String("request_id", req.ID.Hex()),
		zap.String("courier_id", courierID.Hex()))

	meta := map[string]string{"delivery_id": d.ID.Hex(), "request_id": req.ID.Hex()}
	s.notifier.NotifyUser(ctx, courierID, realtime.Event{
		Title:    "Delivery assigned",
		Message:  "You have been assigned a blood delivery. Pickup details are on the delivery record.",
		Category: models.CategoryAssignment,
		Metadata: meta,
	})
	transitEv := realtime.Event{
		Title:    "Delivery scheduled",
		Message:  "A courier has been assigned and the donation is on its way.",
		Category: models.CategoryUpdate,
		Metadata: meta,
	}
	s.notifier.NotifyUser(ctx, accepted.DonorID, transitEv)
	s.notifier.NotifyUser(ctx, req.RecipientID, transitEv)

	return s.deliveries.GetByID(ctx, d.ID)
}

// GetDelivery loads a delivery visible to the actor: the assigned courier,
// the donor, the recipient, or an admin.
func (s *Service) GetDelivery(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID) (*models.Delivery, error) {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeDelivery(actor, d) {
		return nil, apperr.New(apperr.Forbidden, "not authorized to access this delivery")
	}
	return d, nil
}

// ListDeliveries returns the deliveries visible to the actor.
func (s *Service) ListDeliveries(ctx context.Context, actor requestpolicy.Actor, status string, skip, limit int64) ([]models.Delivery, int64, error) {
	f := deliverystore.ListFilter{Status: status}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleCourier:
		f.CourierID = &actor.ID
	case models.RoleDonor:
		f.DonorID = &actor.ID
	case models.RoleRecipient:
		f.RecipientID = &actor.ID
	default:
		return nil, 0, apperr.New(apperr.Forbidden, "not authorized to list deliveries")
	}
	return s.deliveries.List(ctx, f, skip, limit)
}

// DeliveryStatusInput is a courier's status report.
type DeliveryStatusInput struct {
	Status     string     `json:"status"`
	PickupETA  *time.Time `json:"pickup_eta,omitempty"`
	DropoffETA *time.Time `json:"dropoff_eta,omitempty"`
}

// UpdateDeliveryStatus applies a courier's (or admin's) status report.
// A delivered report completes the parent request and credits the donor's
// donation count; a cancelled report cancels the parent request. Deliveries
// only move forward: they start scheduled, so scheduled is not a reportable
// status, and the store refuses writes once a delivery is closed.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, actor requestpolicy.Actor, id primitive.ObjectID, in DeliveryStatusInput) (*models.Delivery, error) {
	switch in.Status {
	case models.DeliveryPickedUp, models.DeliveryDelivered, models.DeliveryCancelled:
	default:
		return nil, apperr.Newf(apperr.Validation, "invalid delivery status %q", in.Status)
	}

	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleCourier:
		if d.CourierID != actor.ID {
			return nil, apperr.New(apperr.Forbidden, "delivery is assigned to another courier")
		}
	default:
		return nil, apperr.New(apperr.Forbidden, "only the assigned courier or an admin can update a delivery")
	}

	d, err = s.deliveries.UpdateStatus(ctx, id, in.Status, in.PickupETA, in.DropoffETA)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{"delivery_id": d.ID.Hex(), "request_id": d.RequestID.Hex()}
	switch in.Status {
	case models.DeliveryDelivered:
		if err := s.requests.Complete(ctx, d.RequestID); err != nil {
			s.log.Error("request completion failed after delivery",
				zap.String("request_id", d.RequestID.Hex()), zap.Error(err))
		}
		if err := s.users.IncrementDonationCount(ctx, d.DonorID); err != nil {
			s.log.Error("donation credit failed",
				zap.String("donor_id", d.DonorID.Hex()), zap.Error(err))
		}
		doneEv := realtime.Event{
			Title:    "Donation delivered",
			Message:  "The donation has arrived. Thank you for saving a life.",
			Category: models.CategoryUpdate,
			Metadata: meta,
		}
		s.notifier.NotifyUser(ctx, d.RecipientID, doneEv)
		s.notifier.NotifyUser(ctx, d.DonorID, doneEv)
	case models.DeliveryCancelled:
		if err := s.requests.Cancel(ctx, d.RequestID); err != nil {
			s.log.Error("request cancellation failed after delivery cancel",
				zap.String("request_id", d.RequestID.Hex()), zap.Error(err))
		}
		cancelEv := realtime.Event{
			Title:    "Delivery cancelled",
			Message:  "The scheduled delivery was cancelled. The request has been closed.",
			Category: models.CategoryUpdate,
			Metadata: meta,
		}
		s.notifier.NotifyUser(ctx, d.RecipientID, cancelEv)
		s.notifier.NotifyUser(ctx, d.DonorID, cancelEv)
	case models.DeliveryPickedUp:
		s.notifier.NotifyUser(ctx, d.RecipientID, realtime.Event{
			Title:    "Donation picked up",
			Message:  "The courier has picked up the donation and is on the way.",
			Category: models.CategoryUpdate,
			Metadata: meta,
		})
	}

	return d, nil
}

func canSeeDelivery(actor requestpolicy.Actor, d *models.Delivery) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return d.CourierID == actor.ID || d.DonorID == actor.ID || d.RecipientID == actor.ID
}
