package cart

import (
	"regexp"
	"time"
)

// Session is the opaque, client-generated token that scopes one shopper's cart.
// It carries no server-side identity.
type Session string

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func (s Session) Valid() bool {
	return sessionPattern.MatchString(string(s))
}

func (s Session) String() string { return string(s) }

// LineItem is one (product, quantity) pairing within a session's cart.
// At most one line item exists per (session, product).
type LineItem struct {
	ID        int64     `json:"id"`
	SessionID Session   `json:"sessionId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// MaxQuantity bounds a single add or set request.
const MaxQuantity = 999
