package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Name
	}{
		{
			name: "last comma first with co-owner",
			raw:  "SMITH, JOHN & JANE",
			want: Name{
				Raw: "SMITH, JOHN & JANE", FullName: "JOHN SMITH",
				FirstName: "JOHN", LastName: "SMITH", Type: Person,
			},
		},
		{
			name: "first middle last with suffix",
			raw:  "John Q. Adams Jr.",
			want: Name{
				Raw: "JOHN Q ADAMS JR", FullName: "JOHN Q ADAMS JR",
				FirstName: "JOHN", MiddleName: "Q", LastName: "ADAMS", Suffix: "JR", Type: Person,
			},
		},
		{
			name: "shared surname",
			raw:  "John & Jane Smith",
			want: Name{
				Raw: "JOHN & JANE SMITH", FullName: "JOHN SMITH",
				FirstName: "JOHN", LastName: "SMITH", Type: Person,
			},
		},
		{
			name: "procedural tokens removed",
			raw:  "DOE, RICHARD ET AL",
			want: Name{
				Raw: "DOE, RICHARD ET AL", FullName: "RICHARD DOE",
				FirstName: "RICHARD", LastName: "DOE", Type: Person,
			},
		},
		{
			name: "estate of prefix",
			raw:  "Estate of Mary Ann Jones, Deceased",
			want: Name{
				Raw: "ESTATE OF MARY ANN JONES, DECEASED", FullName: "MARY ANN JONES",
				FirstName: "MARY", MiddleName: "ANN", LastName: "JONES", Type: Person,
			},
		},
		{
			name: "unknown heirs of caption",
			raw:  "UNKNOWN HEIRS OF JOHN DOE",
			want: Name{
				Raw: "UNKNOWN HEIRS OF JOHN DOE", FullName: "JOHN DOE",
				FirstName: "JOHN", LastName: "DOE", Type: Person,
			},
		},
		{
			name: "alias drops the other name",
			raw:  "JANE DOE AKA JANE SMITH",
			want: Name{
				Raw: "JANE DOE AKA JANE SMITH", FullName: "JANE DOE",
				FirstName: "JANE", LastName: "DOE", Type: Person,
			},
		},
		{
			name: "slashed alias after last comma first",
			raw:  "DOE, JANE F/K/A JANE SMITH",
			want: Name{
				Raw: "DOE, JANE F/K/A JANE SMITH", FullName: "JANE DOE",
				FirstName: "JANE", LastName: "DOE", Type: Person,
			},
		},
		{
			name: "company is not decomposed",
			raw:  "JEFFERSON COUNTY TREASURER",
			want: Name{Raw: "JEFFERSON COUNTY TREASURER", FullName: "JEFFERSON COUNTY TREASURER", Type: Company},
		},
		{
			name: "dotted entity suffix",
			raw:  "Sunrise Holdings L.L.C.",
			want: Name{Raw: "SUNRISE HOLDINGS LLC", FullName: "SUNRISE HOLDINGS LLC", Type: Company},
		},
		{
			name: "single token is a surname",
			raw:  "Madison",
			want: Name{Raw: "MADISON", FullName: "MADISON", LastName: "MADISON", Type: Person},
		},
		{
			name: "accents folded",
			raw:  "José Núñez",
			want: Name{Raw: "JOSE NUNEZ", FullName: "JOSE NUNEZ", FirstName: "JOSE", LastName: "NUNEZ", Type: Person},
		},
		{
			name: "empty",
			raw:  "  , ",
			want: Name{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWithOrder_LastFirst(t *testing.T) {
	got := ParseWithOrder("DOE JOHN A JR ETAL", OrderLastFirst)

	assert.Equal(t, "JOHN", got.FirstName)
	assert.Equal(t, "A", got.MiddleName)
	assert.Equal(t, "DOE", got.LastName)
	assert.Equal(t, "JR", got.Suffix)
	assert.Equal(t, "JOHN A DOE JR", got.FullName)
}

func TestIsCompany(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"ACME BANK TRUST", true},
		{"Wells Fargo Bank, N.A.", true},
		{"First Baptist Church of Springfield", true},
		{"Green Acres HOA", true},
		{"Bob's Plumbing", true},
		{"JOHN SMITH", false},
		{"COTTON, ANNA", false},
		{"BANKS, TYRONE", false},
		{"TRUSTY, JAMES", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCompany(tt.raw))
			if tt.want {
				assert.Equal(t, Company, Parse(tt.raw).Type)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "John Smith", Parse("SMITH, JOHN & JANE").Display())
	assert.Equal(t, "John Q Adams Jr", Parse("JOHN Q ADAMS JR").Display())
	assert.Equal(t, "Robert Lee III", Parse("LEE, ROBERT III").Display())
	assert.Equal(t, "ACME LLC", Parse("Acme LLC").Display())
}

func TestNormalized(t *testing.T) {
	a := Parse("Smith,   John")
	b := Parse("JOHN SMITH")

	assert.Equal(t, "JOHN SMITH", a.Normalized())
	assert.Equal(t, a.Normalized(), b.Normalized())
	assert.True(t, Name{}.IsZero())
}

func TestOwnerPattern(t *testing.T) {
	t.Run("person", func(t *testing.T) {
		re := OwnerPattern(Parse("SMITH, JOHN"))
		require.NotNil(t, re)

		assert.True(t, re.MatchString("Owner: John Smith"))
		assert.True(t, re.MatchString("JOHN A SMITH 123 MAIN ST"))
		assert.True(t, re.MatchString("smith, john"))
		assert.False(t, re.MatchString("JOHNNY SMITHERS"))
		assert.False(t, re.MatchString("JOHN SMITHSON"))
	})

	t.Run("company", func(t *testing.T) {
		re := OwnerPattern(Parse("ACME HOLDINGS LLC"))
		require.NotNil(t, re)

		assert.True(t, re.MatchString("acme holdings, llc"))
		assert.False(t, re.MatchString("ACME LLC"))
	})

	t.Run("surname only", func(t *testing.T) {
		re := OwnerPattern(Parse("MADISON"))
		require.NotNil(t, re)

		assert.True(t, re.MatchString("J MADISON"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, OwnerPattern(Name{}))
	})
}
