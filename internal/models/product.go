package models

import (
	"fmt"
	"strings"
	"time"
)

// Product identifies a (state, county, practice type) ingestion target by a
// path-like name such as "/fl/miami-dade/preforeclosure". Products are
// reference data and are never created by ingestion.
type Product struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Name      string    `db:"name" json:"name"`
	ID        int64     `db:"id" json:"id"`
}

// TableName returns the products table name.
func (Product) TableName() string {
	return "products"
}

// ProductName builds the canonical product path for the given parts.
func ProductName(state, county, practiceType string) string {
	return fmt.Sprintf("/%s/%s/%s",
		strings.ToLower(strings.TrimSpace(state)),
		strings.ToLower(strings.TrimSpace(county)),
		strings.ToLower(strings.TrimSpace(practiceType)),
	)
}

// CanonicalProductName lowercases and trims a product path.
func CanonicalProductName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SplitProductName returns the state, county and practice type segments of a
// product path. ok is false when the name does not have three segments.
func SplitProductName(name string) (state, county, practiceType string, ok bool) {
	parts := strings.Split(strings.Trim(CanonicalProductName(name), "/"), "/")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
