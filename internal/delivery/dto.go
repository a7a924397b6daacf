package delivery

import "github.com/angelmondragon/foodhaul-backend/pkg/db/models"

// RegisterInput is the partner sign-up payload.
type RegisterInput struct {
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
	Address   string
	Pincode   string
}

// UpdateProfileInput lists the editable fields; nil leaves a field untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Address   *string
	Pincode   *string
}

// StatusInput toggles availability and optionally reports the current location.
type StatusInput struct {
	Lat *float64
	Lng *float64
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token    string               `json:"token"`
	Verified bool                 `json:"verified"`
	Partner  *models.DeliveryUser `json:"partner"`
}
