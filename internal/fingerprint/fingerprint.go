// Package fingerprint derives the identity keys used to deduplicate owners,
// properties and owner-product-property links.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/stwalsh4118/publicrecords/internal/address"
	"github.com/stwalsh4118/publicrecords/internal/names"
)

const separator = "|"

// Canonical returns the pre-hash form of the link identity: each part folded
// to ASCII uppercase with whitespace collapsed, joined by "|".
func Canonical(ownerKey, propertyKey, productName string) string {
	return strings.Join([]string{fold(ownerKey), fold(propertyKey), fold(productName)}, separator)
}

// Compute returns the hex sha256 of Canonical. Two sightings with the same
// normalized owner, property and product always share a fingerprint.
func Compute(ownerKey, propertyKey, productName string) string {
	sum := sha256.Sum256([]byte(Canonical(ownerKey, propertyKey, productName)))
	return hex.EncodeToString(sum[:])
}

// OwnerKey is the owner identity: normalized full name plus normalized
// mailing street, city, state and zip. It is empty when the name is.
func OwnerKey(name names.Name, mailing address.Address) string {
	if name.IsZero() {
		return ""
	}
	return strings.Join([]string{
		fold(name.Normalized()),
		fold(mailing.Normalized()),
		fold(mailing.City),
		fold(mailing.State),
		fold(zip5(mailing.Zip)),
	}, separator)
}

// PropertyKey is the property identity: state, county and normalized street
// address. It is empty when the address has no street.
func PropertyKey(state, county string, addr address.Address) string {
	if !addr.HasStreet() {
		return ""
	}
	return strings.Join([]string{fold(state), fold(county), fold(addr.Normalized())}, separator)
}

func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(unidecode.Unidecode(s))), " ")
}

func zip5(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) > 5 {
		return zip[:5]
	}
	return zip
}
