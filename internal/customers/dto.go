package customers

import "github.com/google/uuid"

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email    string
	Phone    string
	Password string
}

// UpdateProfileInput lists the editable profile fields; nil leaves a field untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Address   *string
	Lat       *float64
	Lng       *float64
}

// AuthResult is returned by register, login and verify.
type AuthResult struct {
	Token    string `json:"token"`
	Verified bool   `json:"verified"`
	Email    string `json:"email"`
}

// CartLineInput sets the unit count of one food in the cart. Zero removes the line.
type CartLineInput struct {
	FoodID uuid.UUID
	Unit   int
}
