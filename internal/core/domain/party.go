package domain

import "fmt"

// PartyRole identifies the kind of party participating in the logistics network.
type PartyRole string

const (
	PartyRoleBrand         PartyRole = "BRAND"
	PartyRoleDistributor   PartyRole = "DISTRIBUTOR"
	PartyRoleServiceCenter PartyRole = "SERVICE_CENTER"
	PartyRoleCustomer      PartyRole = "CUSTOMER"
)

// Valid reports whether the role is one of the known party roles.
func (r PartyRole) Valid() bool {
	switch r {
	case PartyRoleBrand, PartyRoleDistributor, PartyRoleServiceCenter, PartyRoleCustomer:
		return true
	}
	return false
}

// CourierDirection is the direction goods move relative to the brand.
type CourierDirection string

const (
	DirectionForward CourierDirection = "FORWARD"
	DirectionReverse CourierDirection = "REVERSE"
)

// Valid reports whether the direction is known.
func (d CourierDirection) Valid() bool {
	return d == DirectionForward || d == DirectionReverse
}

// ReturnReason explains why a reverse shipment exists. It drives both the
// reverse rate selection and cost responsibility.
type ReturnReason string

const (
	ReturnReasonDefective      ReturnReason = "DEFECTIVE"
	ReturnReasonWrongPart      ReturnReason = "WRONG_PART"
	ReturnReasonExcessStock    ReturnReason = "EXCESS_STOCK"
	ReturnReasonCustomerReturn ReturnReason = "CUSTOMER_RETURN"
)

// Valid reports whether the return reason is known.
func (r ReturnReason) Valid() bool {
	switch r {
	case ReturnReasonDefective, ReturnReasonWrongPart, ReturnReasonExcessStock, ReturnReasonCustomerReturn:
		return true
	}
	return false
}

// ParseReturnReason converts an external string into a ReturnReason.
func ParseReturnReason(s string) (ReturnReason, error) {
	r := ReturnReason(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown return reason %q", s)
	}
	return r, nil
}

// ServiceLevel is the courier service tier requested for a shipment.
type ServiceLevel string

const (
	ServiceStandard ServiceLevel = "STANDARD"
	ServiceExpress  ServiceLevel = "EXPRESS"
)

// Valid reports whether the service level is known.
func (s ServiceLevel) Valid() bool {
	return s == ServiceStandard || s == ServiceExpress
}
