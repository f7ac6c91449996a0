package models

import (
	"time"
)

// Property is a physical parcel. Populated fields are never overwritten;
// later sightings only fill what is still empty.
type Property struct {
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updatedAt"`
	Extra         map[string]string `db:"extra" json:"extra,omitempty"`
	OwnerOccupied *bool             `db:"owner_occupied" json:"ownerOccupied,omitempty"`
	IdentityKey   string            `db:"identity_key" json:"-"`
	PropertyDetails
	ID int64 `db:"id" json:"id"`
}

// PropertyDetails holds the fields a later sighting may backfill.
type PropertyDetails struct {
	Address               string `db:"address" json:"address,omitempty"`
	Unit                  string `db:"unit" json:"unit,omitempty"`
	City                  string `db:"city" json:"city,omitempty"`
	State                 string `db:"state" json:"state,omitempty"`
	Zip                   string `db:"zip" json:"zip,omitempty"`
	County                string `db:"county" json:"county,omitempty"`
	PropertyType          string `db:"property_type" json:"propertyType,omitempty"`
	TotalAssessedValue    string `db:"total_assessed_value" json:"totalAssessedValue,omitempty"`
	EstValue              string `db:"est_value" json:"estValue,omitempty"`
	EstEquity             string `db:"est_equity" json:"estEquity,omitempty"`
	LastSaleRecordingDate string `db:"last_sale_recording_date" json:"lastSaleRecordingDate,omitempty"`
	LastSaleAmount        string `db:"last_sale_amount" json:"lastSaleAmount,omitempty"`
	YearBuilt             string `db:"year_built" json:"yearBuilt,omitempty"`
}

// TableName returns the properties table name.
func (Property) TableName() string {
	return "properties"
}
