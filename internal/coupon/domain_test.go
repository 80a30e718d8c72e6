package coupon

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestClassifyWalksTheLifecycle(t *testing.T) {
	c := Coupon{Code: "AA11BB22CC33", StartsOn: "2024-01-10", EndsOn: "2024-01-20"}
	today := "2024-01-15"

	assert.Equal(t, UnreservedActive, Classify(c, nil, today))

	res := &Reservation{ID: uuid.New(), CouponCode: c.Code, MemberID: "52998224725", ReservedAt: "2024-01-15 10:00:00"}
	assert.Equal(t, ReservedActive, Classify(c, res, today))

	res.RedeemedAt = "2024-01-16 09:30:00"
	assert.Equal(t, Redeemed, Classify(c, res, today))

	// Past the end date the unredeemed variants expire; redeemed stays
	// terminal.
	late := "2024-02-01"
	assert.Equal(t, UnreservedExpired, Classify(c, nil, late))
	assert.Equal(t, Redeemed, Classify(c, res, late))

	res.RedeemedAt = ""
	assert.Equal(t, ReservedExpired, Classify(c, res, late))
}

func TestClassifyYieldsExactlyOneState(t *testing.T) {
	dates := rapid.SampledFrom([]string{
		"2023-12-31", "2024-01-01", "2024-01-10", "2024-01-15",
		"2024-01-20", "2024-01-21", "2024-06-30", "2025-01-01",
	})

	rapid.Check(t, func(t *rapid.T) {
		c := Coupon{
			Code:     "AA11BB22CC33",
			StartsOn: dates.Draw(t, "starts"),
			EndsOn:   dates.Draw(t, "ends"),
		}
		today := dates.Draw(t, "today")

		var res *Reservation
		if rapid.Bool().Draw(t, "reserved") {
			res = &Reservation{ID: uuid.New(), CouponCode: c.Code}
			if rapid.Bool().Draw(t, "redeemed") {
				res.RedeemedAt = "2024-01-16 09:30:00"
			}
		}

		state := Classify(c, res, today)
		switch state {
		case UnreservedActive, UnreservedExpired:
			assert.Nil(t, res)
		case ReservedActive, ReservedExpired:
			assert.NotNil(t, res)
			assert.False(t, res.Redeemed())
		case Redeemed:
			assert.NotNil(t, res)
			assert.True(t, res.Redeemed())
		default:
			t.Fatalf("unknown state %q", state)
		}

		// Expiry is purely a function of today vs end date for the
		// non-terminal states.
		if res == nil || !res.Redeemed() {
			expired := state == UnreservedExpired || state == ReservedExpired
			assert.Equal(t, today > c.EndsOn, expired)
		}
	})
}

func TestReservableOn(t *testing.T) {
	c := Coupon{StartsOn: "2024-01-10", EndsOn: "2024-01-20"}

	assert.False(t, ReservableOn(c, "2024-01-09"), "window not open yet")
	assert.True(t, ReservableOn(c, "2024-01-10"), "start day inclusive")
	assert.True(t, ReservableOn(c, "2024-01-20"), "end day inclusive")
	assert.False(t, ReservableOn(c, "2024-01-21"))
}
