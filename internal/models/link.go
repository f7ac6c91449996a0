package models

import (
	"time"
)

// OwnerProductProperty links an Owner and a Property under a Product. At most
// one link exists per Fingerprint. Links are never deleted; their lifecycle is
// carried by the Processed, Consumed and VacancyProcessed flags.
type OwnerProductProperty struct {
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
	OwnerID     *int64    `db:"owner_id" json:"ownerId,omitempty"`
	PropertyID  *int64    `db:"property_id" json:"propertyId,omitempty"`
	Fingerprint string    `db:"fingerprint" json:"fingerprint"`
	LinkDetails
	ID               int64 `db:"id" json:"id"`
	ProductID        int64 `db:"product_id" json:"productId"`
	Processed        bool  `db:"processed" json:"processed"`
	Consumed         bool  `db:"consumed" json:"consumed"`
	VacancyProcessed bool  `db:"vacancy_processed" json:"vacancyProcessed"`
}

// LinkDetails holds the case metadata a later sighting may backfill.
type LinkDetails struct {
	FilingDate      *time.Time `db:"filing_date" json:"fillingDate,omitempty"`
	CaseUniqueID    string     `db:"case_unique_id" json:"caseUniqueId,omitempty"`
	OriginalDocType string     `db:"original_doc_type" json:"originalDocType,omitempty"`
}

// TableName returns the link table name.
func (OwnerProductProperty) TableName() string {
	return "owner_product_properties"
}
