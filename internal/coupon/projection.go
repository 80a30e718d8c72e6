// internal/coupon/projection.go
package coupon

import "sort"

// The listing pipelines below are pure: the storage layer hands them the
// scanned rows plus "today" and they join, classify, filter and sort.
// Dangling references (a coupon whose merchant vanished, a reservation
// whose coupon vanished) are dropped by an explicit skip step rather than
// treated as errors; cross-collection integrity is best-effort.

// BuildMerchantListing classifies a merchant's coupons against the ledger
// and keeps the ones matching the filter. Reserved-but-unredeemed coupons
// appear under no filter: from the merchant's point of view they are in
// flight.
func BuildMerchantListing(coupons []Coupon, ledger map[string]Reservation, filter, today string) ([]MerchantCouponView, error) {
	if filter != FilterActive && filter != FilterRedeemed && filter != FilterExpired {
		return nil, ErrInvalidFilter
	}

	views := make([]MerchantCouponView, 0, len(coupons))
	for _, c := range coupons {
		res := lookup(ledger, c.Code)
		switch Classify(c, res, today) {
		case UnreservedActive:
			if filter == FilterActive {
				views = append(views, MerchantCouponView{Coupon: c})
			}
		case UnreservedExpired:
			if filter == FilterExpired {
				views = append(views, MerchantCouponView{Coupon: c})
			}
		case Redeemed:
			if filter == FilterRedeemed {
				views = append(views, MerchantCouponView{
					Coupon:     c,
					RedeemedBy: res.MemberID,
					RedeemedAt: res.RedeemedAt,
				})
			}
		}
	}

	// Descending by (start date, title); the title breaks ties within a
	// batch issued for the same window.
	sort.Slice(views, func(i, j int) bool {
		if views[i].StartsOn != views[j].StartsOn {
			return views[i].StartsOn > views[j].StartsOn
		}
		return views[i].Title > views[j].Title
	})
	return views, nil
}

// BuildAvailableListing keeps unreserved coupons inside their validity
// window, joins the merchant (skipping coupons whose merchant record is
// gone), applies the optional category filter by the merchant's category
// and enriches with display names.
func BuildAvailableListing(coupons []Coupon, ledger map[string]Reservation, merchants map[string]MerchantInfo, categories map[string]CategoryInfo, categoryID, today string) []CouponView {
	views := make([]CouponView, 0, len(coupons))
	for _, c := range coupons {
		if lookup(ledger, c.Code) != nil || !ReservableOn(c, today) {
			continue
		}
		m, ok := merchants[c.MerchantID]
		if !ok {
			continue // data-integrity skip, not an error
		}
		if categoryID != "" && m.CategoryID != categoryID {
			continue
		}
		v := CouponView{Coupon: c, MerchantName: m.TradeName}
		if cat, ok := categories[m.CategoryID]; ok {
			v.CategoryName = cat.Name
		}
		views = append(views, v)
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].StartsOn > views[j].StartsOn
	})
	return views
}

// BuildMemberListing attaches the enriched coupon to each of a member's
// ledger entries and filters by the reservation's lifecycle position.
// Entries whose coupon record cannot be found are skipped; a missing
// merchant only costs the display names.
func BuildMemberListing(entries []Reservation, coupons map[string]Coupon, merchants map[string]MerchantInfo, categories map[string]CategoryInfo, filter, today string) ([]ReservationView, error) {
	if filter != FilterActive && filter != FilterRedeemed && filter != FilterExpired {
		return nil, ErrInvalidFilter
	}

	views := make([]ReservationView, 0, len(entries))
	for _, res := range entries {
		c, ok := coupons[res.CouponCode]
		if !ok {
			continue // data-integrity skip
		}

		var keep bool
		switch Classify(c, &res, today) {
		case ReservedActive:
			keep = filter == FilterActive
		case Redeemed:
			keep = filter == FilterRedeemed
		case ReservedExpired:
			keep = filter == FilterExpired
		}
		if !keep {
			continue
		}

		v := ReservationView{Reservation: res, Coupon: CouponView{Coupon: c}}
		if m, ok := merchants[c.MerchantID]; ok {
			v.Coupon.MerchantName = m.TradeName
			if cat, ok := categories[m.CategoryID]; ok {
				v.Coupon.CategoryName = cat.Name
			}
		}
		views = append(views, v)
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Coupon.StartsOn > views[j].Coupon.StartsOn
	})
	return views, nil
}

func lookup(ledger map[string]Reservation, code string) *Reservation {
	if res, ok := ledger[code]; ok {
		return &res
	}
	return nil
}
