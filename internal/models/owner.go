package models

import (
	"time"
)

// Owner is a person or company inferred from a record's name field.
// Owners are keyed by IdentityKey (normalized name plus mailing address) and
// are never merged with near-duplicates.
type Owner struct {
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
	IdentityKey string    `db:"identity_key" json:"-"`
	OwnerDetails
	ID int64 `db:"id" json:"id"`
}

// OwnerDetails holds the fields a later sighting may backfill.
type OwnerDetails struct {
	FullName       string `db:"full_name" json:"fullName"`
	RawName        string `db:"raw_name" json:"rawName,omitempty"`
	FirstName      string `db:"first_name" json:"firstName,omitempty"`
	MiddleName     string `db:"middle_name" json:"middleName,omitempty"`
	LastName       string `db:"last_name" json:"lastName,omitempty"`
	Suffix         string `db:"suffix" json:"suffix,omitempty"`
	OwnerType      string `db:"owner_type" json:"ownerType"`
	MailingAddress string `db:"mailing_address" json:"mailingAddress,omitempty"`
	MailingUnit    string `db:"mailing_unit" json:"mailingUnit,omitempty"`
	MailingCity    string `db:"mailing_city" json:"mailingCity,omitempty"`
	MailingState   string `db:"mailing_state" json:"mailingState,omitempty"`
	MailingZip     string `db:"mailing_zip" json:"mailingZip,omitempty"`
	Phone          string `db:"phone" json:"phone,omitempty"`
}

// TableName returns the owners table name.
func (Owner) TableName() string {
	return "owners"
}
