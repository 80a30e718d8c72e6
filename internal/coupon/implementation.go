// internal/coupon/implementation.go
package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

// codeRetries bounds how many fresh codes IssueBatch tries when a
// generated code collides with an existing row.
const codeRetries = 3

// service implements the Service interface over Postgres. All
// cross-request safety lives in the storage layer: the unique constraint
// on reservations.coupon_code closes the reserve race and a conditional
// update closes the redeem race. The core holds no locks and never
// retries a conflict.
type service struct {
	db       *sql.DB
	dir      Directory
	tracer   trace.Tracer
	issued   metric.Int64Counter
	reserved metric.Int64Counter
	redeemed metric.Int64Counter
}

// NewService creates a new coupon service instance.
func NewService(db *sql.DB, dir Directory) Service {
	meter := otel.Meter("pratica-extensionista/coupon")
	issued, _ := meter.Int64Counter("coupons.issued")
	reserved, _ := meter.Int64Counter("coupons.reserved")
	redeemed, _ := meter.Int64Counter("coupons.redeemed")

	return &service{
		db:       db,
		dir:      dir,
		tracer:   otel.Tracer("pratica-extensionista/coupon"),
		issued:   issued,
		reserved: reserved,
		redeemed: redeemed,
	}
}

// IssueBatch creates quantity independent coupons sharing everything but
// the code, and returns the generated codes. Inserts are single-row and
// independent; there is no batch transaction to roll back.
func (s *service) IssueBatch(ctx context.Context, merchantID, title, startsOn, endsOn string, discountPct float64, quantity int) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "coupon.issue_batch",
		trace.WithAttributes(
			attribute.String("merchant.id", merchantID),
			attribute.Int("batch.quantity", quantity),
		),
	)
	defer span.End()

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := time.Parse(DateLayout, startsOn); err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrInvalidDate, startsOn)
	}
	if _, err := time.Parse(DateLayout, endsOn); err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrInvalidDate, endsOn)
	}
	if endsOn <= startsOn {
		return nil, ErrInvalidPeriod
	}

	m, err := s.dir.Merchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("lookup merchant: %w", err)
	}
	if m == nil {
		return nil, ErrMerchantNotFound
	}

	issuedOn := time.Now().Format(DateLayout)
	codes := make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		code, err := s.insertCoupon(ctx, Coupon{
			MerchantID:  merchantID,
			Title:       title,
			IssuedOn:    issuedOn,
			StartsOn:    startsOn,
			EndsOn:      endsOn,
			DiscountPct: discountPct,
		})
		if err != nil {
			return nil, fmt.Errorf("insert coupon %d of %d: %w", i+1, quantity, err)
		}
		codes = append(codes, code)
	}

	s.issued.Add(ctx, int64(quantity), metric.WithAttributes(attribute.String("merchant.id", merchantID)))
	return codes, nil
}

func (s *service) insertCoupon(ctx context.Context, c Coupon) (string, error) {
	query := `
		INSERT INTO coupons (code, merchant_id, title, issued_on, starts_on, ends_on, discount_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := NewCode()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx, query, code, c.MerchantID, c.Title, c.IssuedOn, c.StartsOn, c.EndsOn, c.DiscountPct)
		if err == nil {
			return code, nil
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			continue // code collision, try another
		}
		return "", err
	}
	return "", fmt.Errorf("coupon code collision persisted after %d attempts", codeRetries)
}

// Reserve claims a coupon for a member. The claim is one-time and
// non-reversible; the unique constraint on coupon_code decides races
// between concurrent reservers, not a prior existence check.
func (s *service) Reserve(ctx context.Context, code, memberID string) (*Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "coupon.reserve",
		trace.WithAttributes(
			attribute.String("coupon.code", code),
			attribute.String("member.id", memberID),
		),
	)
	defer span.End()

	c, err := s.couponByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !ReservableOn(*c, now.Format(DateLayout)) {
		return nil, ErrOutsideValidity
	}

	res := &Reservation{
		ID:         uuid.New(),
		CouponCode: code,
		MemberID:   memberID,
		ReservedAt: now.Format(TimestampLayout),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, coupon_code, member_id, reserved_at, redeemed_at)
		VALUES ($1, $2, $3, $4, NULL)
	`, res.ID, res.CouponCode, res.MemberID, res.ReservedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			span.SetAttributes(attribute.Bool("conflict.detected", true))
			return nil, ErrAlreadyReserved
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	s.reserved.Add(ctx, 1)
	return res, nil
}

// Redeem marks a reservation as used, on behalf of the merchant that
// issued the coupon. The (code, merchant) lookup rejects redemption by
// any other merchant as not-found. The timestamp is set through a
// conditional update so a concurrent duplicate redemption loses cleanly.
func (s *service) Redeem(ctx context.Context, code, merchantID string) error {
	ctx, span := s.tracer.Start(ctx, "coupon.redeem",
		trace.WithAttributes(
			attribute.String("coupon.code", code),
			attribute.String("merchant.id", merchantID),
		),
	)
	defer span.End()

	var owned bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1 AND merchant_id = $2)
	`, code, merchantID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("check coupon ownership: %w", err)
	}
	if !owned {
		return ErrCouponNotFound
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE reservations
		SET redeemed_at = $1
		WHERE coupon_code = $2 AND redeemed_at IS NULL
	`, time.Now().Format(TimestampLayout), code)
	if err != nil {
		return fmt.Errorf("redeem reservation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("redeem reservation: %w", err)
	}
	if affected == 0 {
		// Either nothing was reserved or someone got here first.
		var exists bool
		err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM reservations WHERE coupon_code = $1)
		`, code).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check reservation: %w", err)
		}
		if !exists {
			return ErrNotReserved
		}
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return ErrAlreadyRedeemed
	}

	s.redeemed.Add(ctx, 1)
	return nil
}

// ListMerchantCoupons builds the merchant-facing listing for one filter.
func (s *service) ListMerchantCoupons(ctx context.Context, merchantID, filter string) ([]MerchantCouponView, error) {
	ctx, span := s.tracer.Start(ctx, "coupon.list_merchant")
	defer span.End()

	coupons, err := s.couponsByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgerFor(ctx, codesOf(coupons))
	if err != nil {
		return nil, err
	}

	views, err := BuildMerchantListing(coupons, ledger, filter, time.Now().Format(DateLayout))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("listing.size", len(views)))
	return views, nil
}

// ListAvailableCoupons builds the member-facing catalog of coupons open
// for reservation, optionally restricted to one merchant category.
func (s *service) ListAvailableCoupons(ctx context.Context, categoryID string) ([]CouponView, error) {
	ctx, span := s.tracer.Start(ctx, "coupon.list_available")
	defer span.End()

	coupons, err := s.allCoupons(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgerFor(ctx, codesOf(coupons))
	if err != nil {
		return nil, err
	}
	merchants, categories, err := s.enrichment(ctx, coupons)
	if err != nil {
		return nil, err
	}

	views := BuildAvailableListing(coupons, ledger, merchants, categories, categoryID, time.Now().Format(DateLayout))
	span.SetAttributes(attribute.Int("listing.size", len(views)))
	return views, nil
}

// ListMemberReservations builds a member's reservation history for one
// filter, with the enriched coupon attached to each entry.
func (s *service) ListMemberReservations(ctx context.Context, memberID, filter string) ([]ReservationView, error) {
	ctx, span := s.tracer.Start(ctx, "coupon.list_member")
	defer span.End()

	entries, err := s.reservationsByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.CouponCode)
	}
	coupons, err := s.couponsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	flat := make([]Coupon, 0, len(coupons))
	for _, c := range coupons {
		flat = append(flat, c)
	}
	merchants, categories, err := s.enrichment(ctx, flat)
	if err != nil {
		return nil, err
	}

	views, err := BuildMemberListing(entries, coupons, merchants, categories, filter, time.Now().Format(DateLayout))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("listing.size", len(views)))
	return views, nil
}

func (s *service) couponByCode(ctx context.Context, code string) (*Coupon, error) {
	c := &Coupon{}
	err := s.db.QueryRowContext(ctx, `
		SELECT code, merchant_id, title, issued_on, starts_on, ends_on, discount_pct
		FROM coupons
		WHERE code = $1
	`, code).Scan(&c.Code, &c.MerchantID, &c.Title, &c.IssuedOn, &c.StartsOn, &c.EndsOn, &c.DiscountPct)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

func (s *service) couponsByMerchant(ctx context.Context, merchantID string) ([]Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, merchant_id, title, issued_on, starts_on, ends_on, discount_pct
		FROM coupons
		WHERE merchant_id = $1
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("query merchant coupons: %w", err)
	}
	return scanCoupons(rows)
}

func (s *service) allCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, merchant_id, title, issued_on, starts_on, ends_on, discount_pct
		FROM coupons
	`)
	if err != nil {
		return nil, fmt.Errorf("query coupons: %w", err)
	}
	return scanCoupons(rows)
}

func (s *service) couponsByCodes(ctx context.Context, codes []string) (map[string]Coupon, error) {
	if len(codes) == 0 {
		return map[string]Coupon{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, merchant_id, title, issued_on, starts_on, ends_on, discount_pct
		FROM coupons
		WHERE code = ANY($1)
	`, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("query coupons by code: %w", err)
	}
	coupons, err := scanCoupons(rows)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]Coupon, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
	}
	return byCode, nil
}

func scanCoupons(rows *sql.Rows) ([]Coupon, error) {
	defer rows.Close()
	var coupons []Coupon
	for rows.Next() {
		var c Coupon
		if err := rows.Scan(&c.Code, &c.MerchantID, &c.Title, &c.IssuedOn, &c.StartsOn, &c.EndsOn, &c.DiscountPct); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}
	return coupons, nil
}

// ledgerFor loads the reservation entries for a set of coupon codes,
// keyed by code. The unique constraint guarantees at most one per code.
func (s *service) ledgerFor(ctx context.Context, codes []string) (map[string]Reservation, error) {
	if len(codes) == 0 {
		return map[string]Reservation{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, coupon_code, member_id, reserved_at, redeemed_at
		FROM reservations
		WHERE coupon_code = ANY($1)
	`, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	entries, err := scanReservations(rows)
	if err != nil {
		return nil, err
	}
	ledger := make(map[string]Reservation, len(entries))
	for _, e := range entries {
		ledger[e.CouponCode] = e
	}
	return ledger, nil
}

func (s *service) reservationsByMember(ctx context.Context, memberID string) ([]Reservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, coupon_code, member_id, reserved_at, redeemed_at
		FROM reservations
		WHERE member_id = $1
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("query member reservations: %w", err)
	}
	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]Reservation, error) {
	defer rows.Close()
	var entries []Reservation
	for rows.Next() {
		var e Reservation
		var redeemedAt sql.NullString
		if err := rows.Scan(&e.ID, &e.CouponCode, &e.MemberID, &e.ReservedAt, &redeemedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		e.RedeemedAt = redeemedAt.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return entries, nil
}

// enrichment resolves the merchants and categories referenced by a set of
// coupons through the directory. Unknown references are simply absent
// from the maps; the projection decides what that means per listing.
func (s *service) enrichment(ctx context.Context, coupons []Coupon) (map[string]MerchantInfo, map[string]CategoryInfo, error) {
	merchants := make(map[string]MerchantInfo)
	categories := make(map[string]CategoryInfo)
	for _, c := range coupons {
		if _, seen := merchants[c.MerchantID]; seen {
			continue
		}
		m, err := s.dir.Merchant(ctx, c.MerchantID)
		if err != nil {
			return nil, nil, fmt.Errorf("lookup merchant %s: %w", c.MerchantID, err)
		}
		if m == nil {
			continue
		}
		merchants[c.MerchantID] = *m

		if _, seen := categories[m.CategoryID]; seen {
			continue
		}
		cat, err := s.dir.Category(ctx, m.CategoryID)
		if err != nil {
			return nil, nil, fmt.Errorf("lookup category %s: %w", m.CategoryID, err)
		}
		if cat != nil {
			categories[m.CategoryID] = *cat
		}
	}
	return merchants, categories, nil
}

func codesOf(coupons []Coupon) []string {
	codes := make([]string, 0, len(coupons))
	for _, c := range coupons {
		codes = append(codes, c.Code)
	}
	return codes
}
