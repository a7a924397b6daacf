package vendors

import (
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
)

// CreateVendorInput is what an admin supplies to onboard a restaurant.
type CreateVendorInput struct {
	Name      string
	OwnerName string
	FoodTypes []string
	Pincode   string
	Address   string
	Phone     string
	Email     string
	Password  string
}

// UpdateProfileInput lists the fields a vendor may change; nil leaves a field untouched.
type UpdateProfileInput struct {
	Name      *string
	Address   *string
	Phone     *string
	FoodTypes *[]string
}

// ServiceToggleInput flips service availability and optionally pins the location.
type ServiceToggleInput struct {
	Lat *float64
	Lng *float64
}

// LoginResult is returned on successful vendor login.
type LoginResult struct {
	Token  string         `json:"token"`
	Vendor *models.Vendor `json:"vendor"`
}
