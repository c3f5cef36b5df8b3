package model

import (
	"errors"
	"strings"
	"time"

	"github.com/target/jobmatch/internal/geo"
)

// Location is a customer-owned address with a coordinate.
type Location struct {
	ID         string    `json:"id"          db:"id"`
	OwnerID    string    `json:"owner_id"    db:"owner_id"`
	Point      geo.Point `json:"point"`
	Address    string    `json:"address"     db:"address"`
	City       string    `json:"city"        db:"city"`
	State      string    `json:"state"       db:"state"`
	PostalCode string    `json:"postal_code" db:"postal_code"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// CreateLocationRequest represents a request to register a new location.
type CreateLocationRequest struct {
	OwnerID    string    `json:"owner_id"`
	Point      geo.Point `json:"point"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
}

// Validate validates the CreateLocationRequest fields.
func (r *CreateLocationRequest) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	if err := r.Point.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Address) == "" {
		return errors.New("address is required")
	}
	return nil
}
