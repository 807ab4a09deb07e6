package domain

import "time"

// Address stores the fields used for order shipping and billing.
type Address struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Country    string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
	StreetName string `json:"streetName,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Account is a registered buyer. Credential and token handling live
// upstream; this backend only reads the profile.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}
