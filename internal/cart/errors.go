package cart

import "errors"

var (
	ErrNotFound           = errors.New("cart item not found")
	ErrInvalidSession     = errors.New("invalid session token")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 999")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is out of stock")
	ErrCacheMiss          = errors.New("cache miss")
	ErrStaleFill          = errors.New("cache fill superseded by a newer write")
)
