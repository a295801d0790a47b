// Package requestpolicy decides who may see or act on a blood request.
//
// Authorization rules:
//   - Admins can access every request
//   - Recipients can access requests they own
//   - Donors can access requests whose match list contains them
//   - Couriers can access requests attached to a delivery assigned to them
package requestpolicy

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	deliverystore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/deliveries"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// Actor is the authenticated caller, translated out of the HTTP layer.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// CanAccess reports whether the actor holds one of the relationships that
// make up the request's access policy. The delivery store is consulted only
// for couriers, to resolve the assigned courier of the attached delivery.
func CanAccess(ctx context.Context, deliveries *deliverystore.Store, actor Actor, req *models.BloodRequest) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleRecipient:
		return req.RecipientID == actor.ID, nil
	case models.RoleDonor:
		return req.MatchFor(actor.ID) != nil, nil
	case models.RoleCourier:
		if req.DeliveryID == nil {
			return false, nil
		}
		d, err := deliveries.GetByID(ctx, *req.DeliveryID)
		if err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				return false, nil
			}
			return false, err
		}
		return d.CourierID == actor.ID, nil
	default:
		return false, nil
	}
}

// CanManage reports whether the actor may re-match, escalate, or cancel the
// request: admins, or the owning recipient.
func CanManage(actor Actor, req *models.BloodRequest) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleRecipient && req.RecipientID == actor.ID
}
