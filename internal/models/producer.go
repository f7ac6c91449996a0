package models

import (
	"fmt"
	"strings"
	"time"
)

// PublicRecordProducer is one unit of scrape or import work for a source in
// a state and county (or city). Processed flips to true when a worker claims
// it and is reset by a scheduled job to re-arm the work.
type PublicRecordProducer struct {
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
	CountyPriorityID *int64    `db:"county_priority_id" json:"countyPriorityId,omitempty"`
	Priority         *int      `db:"priority" json:"priority,omitempty"`
	Source           string    `db:"source" json:"source"`
	State            string    `db:"state" json:"state"`
	County           string    `db:"county" json:"county"`
	City             string    `db:"city" json:"city,omitempty"`
	ID               int64     `db:"id" json:"id"`
	Offset           int       `db:"offset_count" json:"offset"`
	Processed        bool      `db:"processed" json:"processed"`
}

// TableName returns the producers table name.
func (PublicRecordProducer) TableName() string {
	return "public_record_producers"
}

// String identifies the producer in logs.
func (p PublicRecordProducer) String() string {
	loc := p.County
	if p.City != "" {
		loc = p.City
	}
	return fmt.Sprintf("%s:%s/%s", p.Source, strings.ToLower(p.State), strings.ToLower(loc))
}

// CountyPriority orders producers; a lower value is claimed first.
type CountyPriority struct {
	State    string `db:"state" json:"state"`
	County   string `db:"county" json:"county"`
	ID       int64  `db:"id" json:"id"`
	Priority int    `db:"priority" json:"priority"`
}

// TableName returns the county priorities table name.
func (CountyPriority) TableName() string {
	return "county_priorities"
}

// PriorityOrder selects the direction in which producers are claimed.
type PriorityOrder string

const (
	PriorityAscending  PriorityOrder = "asc"
	PriorityDescending PriorityOrder = "desc"
)

// ParsePriorityOrder accepts "asc" or "desc" (case-insensitive); empty means ascending.
func ParsePriorityOrder(s string) (PriorityOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return PriorityAscending, nil
	case "desc":
		return PriorityDescending, nil
	default:
		return "", fmt.Errorf("invalid priority order %q: must be asc or desc", s)
	}
}
