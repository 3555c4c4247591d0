package service

import (
	"testing"

	"spareparts-billing/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePayer_Table(t *testing.T) {
	resolver := NewResponsibilityResolver()

	cases := []struct {
		name      string
		direction domain.CourierDirection
		reason    *domain.ReturnReason
		want      domain.PartyRole
	}{
		{"forward", domain.DirectionForward, nil, domain.PartyRoleBrand},
		{"forward ignores reason", domain.DirectionForward, reasonPtr(domain.ReturnReasonCustomerReturn), domain.PartyRoleBrand},
		{"reverse defective", domain.DirectionReverse, reasonPtr(domain.ReturnReasonDefective), domain.PartyRoleBrand},
		{"reverse wrong part", domain.DirectionReverse, reasonPtr(domain.ReturnReasonWrongPart), domain.PartyRoleBrand},
		{"reverse excess stock", domain.DirectionReverse, reasonPtr(domain.ReturnReasonExcessStock), domain.PartyRoleServiceCenter},
		{"reverse customer return", domain.DirectionReverse, reasonPtr(domain.ReturnReasonCustomerReturn), domain.PartyRoleCustomer},
		{"reverse no reason", domain.DirectionReverse, nil, domain.PartyRoleServiceCenter},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payer, err := resolver.ResolvePayer(tc.direction, tc.reason)
			require.NoError(t, err)
			assert.Equal(t, tc.want, payer)
		})
	}
}

func TestResolvePayer_UnknownInputs(t *testing.T) {
	resolver := NewResponsibilityResolver()

	_, err := resolver.ResolvePayer("DIAGONAL", nil)
	assertAppError(t, err, "PRC_003")

	bogus := domain.ReturnReason("LOST")
	_, err = resolver.ResolvePayer(domain.DirectionReverse, &bogus)
	assertAppError(t, err, "PRC_002")
}
