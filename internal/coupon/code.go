// internal/coupon/code.go
package coupon

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Coupon codes are 12 uppercase hex characters (48 bits of entropy).
// "Sufficiently unique" rather than guaranteed unique; the coupons table
// primary key catches the astronomically rare collision and IssueBatch
// retries with a fresh code.
const codeBytes = 6

// NewCode generates a coupon code.
func NewCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate coupon code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
