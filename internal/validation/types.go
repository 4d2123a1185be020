package validation

// AddCartItemRequest is the payload for POST /api/cart.
// Quantity defaults to 1 when omitted.
type AddCartItemRequest struct {
	SessionID string `json:"sessionId" validate:"required,session"`
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,min=1,max=999"`
}

// UpdateCartItemRequest is the payload for PUT /api/cart/:id.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=999"`
}

// CheckoutRequest is the payload for POST /api/orders.
// Customer fields are validated by the order converter; any client-computed
// total in the body is ignored.
type CheckoutRequest struct {
	SessionID     string `json:"sessionId" validate:"required,session"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

// ContactRequest is the payload for POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name" validate:"nonblank,max=200"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"nonblank,max=200"`
	Message string `json:"message" validate:"nonblank,max=5000"`
}

// FeedbackRequest is the payload for POST /api/feedback.
type FeedbackRequest struct {
	Name     string `json:"name" validate:"nonblank,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback" validate:"nonblank,max=5000"`
}
