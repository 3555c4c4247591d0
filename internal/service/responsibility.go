package service

import (
	"spareparts-billing/internal/core/domain"
	"spareparts-billing/pkg/apperror"
)

// responsibilityResolver implements ports.ResponsibilityResolver.
//
// The table below is the single source of truth for who pays courier cost:
//
//	FORWARD (any reason)       -> BRAND (origin-pays model)
//	REVERSE + DEFECTIVE        -> BRAND
//	REVERSE + WRONG_PART       -> BRAND
//	REVERSE + EXCESS_STOCK     -> SERVICE_CENTER
//	REVERSE + CUSTOMER_RETURN  -> CUSTOMER
//	REVERSE, no reason given   -> SERVICE_CENTER (conservative default)
type responsibilityResolver struct{}

// NewResponsibilityResolver creates the cost responsibility resolver.
func NewResponsibilityResolver() *responsibilityResolver {
	return &responsibilityResolver{}
}

// ResolvePayer maps direction + return reason to the paying party's role.
// Pure function, no side effects.
func (r *responsibilityResolver) ResolvePayer(direction domain.CourierDirection, reason *domain.ReturnReason) (domain.PartyRole, error) {
	switch direction {
	case domain.DirectionForward:
		return domain.PartyRoleBrand, nil
	case domain.DirectionReverse:
		if reason == nil {
			return domain.PartyRoleServiceCenter, nil
		}
		switch *reason {
		case domain.ReturnReasonDefective, domain.ReturnReasonWrongPart:
			return domain.PartyRoleBrand, nil
		case domain.ReturnReasonExcessStock:
			return domain.PartyRoleServiceCenter, nil
		case domain.ReturnReasonCustomerReturn:
			return domain.PartyRoleCustomer, nil
		default:
			return "", apperror.ErrUnknownReturnReason(string(*reason))
		}
	default:
		return "", apperror.ErrUnresolvedResponsibility(string(direction))
	}
}
