package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/publicrecords/internal/database"
	"github.com/stwalsh4118/publicrecords/internal/database/dbtest"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

func TestOwnerRepository_CreateIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewOwnerRepository(db)
	ctx := context.Background()

	owner := &models.Owner{
		IdentityKey:  "JOHN SMITH|||||",
		OwnerDetails: models.OwnerDetails{FullName: "JOHN SMITH", OwnerType: "PERSON"},
	}

	first, created, err := repo.Create(ctx, owner)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.ID)

	second, created, err := repo.Create(ctx, owner)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	found, err := repo.FindByIdentityKey(ctx, owner.IdentityKey)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "JOHN SMITH", found.FullName)

	missing, err := repo.FindByIdentityKey(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOwnerRepository_UpdateDetails(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewOwnerRepository(db)
	ctx := context.Background()

	owner, _, err := repo.Create(ctx, &models.Owner{
		IdentityKey:  "k",
		OwnerDetails: models.OwnerDetails{FullName: "JOHN SMITH", OwnerType: "PERSON"},
	})
	require.NoError(t, err)

	details := owner.OwnerDetails
	details.Phone = "555-0100"
	require.NoError(t, repo.UpdateDetails(ctx, owner.ID, details))

	found, err := repo.FindByIdentityKey(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", found.Phone)
}

func TestPropertyRepository_ExtraAndOwnerOccupied(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	property, created, err := repo.Create(ctx, &models.Property{
		IdentityKey:     "IL|SANGAMON|123 MAIN ST",
		PropertyDetails: models.PropertyDetails{Address: "123 Main St", State: "IL", County: "sangamon"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, property.OwnerOccupied)
	assert.Empty(t, property.Extra)

	occupied := true
	property.OwnerOccupied = &occupied
	property.Extra = map[string]string{"Lien Amount": "1200"}
	property.Zip = "62701"
	require.NoError(t, repo.Update(ctx, property))

	found, err := repo.FindByIdentityKey(ctx, property.IdentityKey)
	require.NoError(t, err)
	require.NotNil(t, found.OwnerOccupied)
	assert.True(t, *found.OwnerOccupied)
	assert.Equal(t, "1200", found.Extra["Lien Amount"])
	assert.Equal(t, "62701", found.Zip)
}

func TestProductRepository_Cached(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	repo, err := NewCachedProductRepository(NewProductRepository(db), 4)
	require.NoError(t, err)

	missing, err := repo.FindByName(ctx, "/il/sangamon/preforeclosure")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := repo.Create(ctx, "/IL/Sangamon/Preforeclosure")
	require.NoError(t, err)
	assert.Equal(t, "/il/sangamon/preforeclosure", created.Name)

	found, err := repo.FindByName(ctx, "/il/sangamon/preforeclosure")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestLinkRepository_CreateAndBackfill(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	ownerID, propertyID, productID := seedGraph(t, db, "only")
	repo := NewLinkRepository(db)

	link := &models.OwnerProductProperty{
		Fingerprint: "fp-1", OwnerID: &ownerID, PropertyID: &propertyID, ProductID: productID,
	}
	first, created, err := repo.Create(ctx, link)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.Processed)
	assert.False(t, first.Consumed)

	again, created, err := repo.Create(ctx, link)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	filed := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateDetails(ctx, first.ID, models.LinkDetails{FilingDate: &filed, CaseUniqueID: "C-1"}))

	found, err := repo.FindByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, found.FilingDate)
	assert.True(t, filed.Equal(found.FilingDate.UTC()))
	assert.Equal(t, "C-1", found.CaseUniqueID)
}

func TestProducerRepository_ClaimOrder(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewProducerRepository(db)
	ctx := context.Background()

	seedProducer(t, repo, "civil", "IL", "cook", intPtr(2))
	seedProducer(t, repo, "civil", "IL", "sangamon", intPtr(1))
	seedProducer(t, repo, "civil", "IL", "lake", nil)
	seedProducer(t, repo, "code-violation", "IL", "will", intPtr(0))

	var counties []string
	for {
		p, err := repo.ClaimNext(ctx, "civil", models.PriorityAscending)
		require.NoError(t, err)
		if p == nil {
			break
		}
		assert.True(t, p.Processed)
		counties = append(counties, p.County)
	}
	assert.Equal(t, []string{"sangamon", "cook", "lake"}, counties, "lower priority first, unprioritized last")

	n, err := repo.ResetAll(ctx, "civil")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	p, err := repo.ClaimNext(ctx, "civil", models.PriorityDescending)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "cook", p.County)
	require.NotNil(t, p.Priority)
	assert.Equal(t, 2, *p.Priority)
}

func TestProducerRepository_ClaimIsExclusive(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewProducerRepository(db)
	ctx := context.Background()

	const units = 25
	for i := 0; i < units; i++ {
		seedProducer(t, repo, "civil", "FL", fmt.Sprintf("county-%02d", i), intPtr(i%5))
	}

	var (
		mu      sync.Mutex
		claimed = map[int64]int{}
		wg      sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				p, err := repo.ClaimNext(ctx, "civil", models.PriorityAscending)
				if err != nil {
					t.Errorf("claim failed: %v", err)
					return
				}
				if p == nil {
					return
				}
				mu.Lock()
				claimed[p.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, units)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "producer %d claimed more than once", id)
	}
}

func TestProducerRepository_ResetSubsetAndFind(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewProducerRepository(db)
	ctx := context.Background()

	seedProducer(t, repo, "civil", "CA", "stanislaus", intPtr(1))
	seedProducer(t, repo, "civil", "CA", "fresno", intPtr(2))
	seedProducer(t, repo, "civil", "CA", "kern", intPtr(3))

	n, err := repo.ResetSubset(ctx, "civil", "ca", []string{"Stanislaus", "Kern"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	fresno, err := repo.Find(ctx, "civil", "CA", "fresno")
	require.NoError(t, err)
	require.NotNil(t, fresno)
	assert.True(t, fresno.Processed)

	first, err := repo.ClaimNext(ctx, "civil", models.PriorityAscending)
	require.NoError(t, err)
	assert.Equal(t, "stanislaus", first.County)

	missing, err := repo.Find(ctx, "civil", "CA", "alameda")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.MarkProcessed(ctx, fresno.ID))
	err = repo.MarkProcessed(ctx, 999999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestQueryRepository_CountMatchesPages(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	links := NewLinkRepository(db)

	ownerA, propA, product := seedGraph(t, db, "a")
	ownerB, propB, _ := seedGraph(t, db, "b")
	_, propC, _ := seedGraph(t, db, "c")

	pairs := []struct {
		owner, property int64
		consumed        bool
	}{
		{ownerA, propA, true},
		{ownerA, propC, true},
		{ownerB, propB, true},
		{ownerB, propC, false},
	}
	for i, p := range pairs {
		owner, property := p.owner, p.property
		l, _, err := links.Create(ctx, &models.OwnerProductProperty{
			Fingerprint: fmt.Sprintf("fp-%d", i), OwnerID: &owner, PropertyID: &property, ProductID: product,
		})
		require.NoError(t, err)
		require.NoError(t, links.SetFlags(ctx, l.ID, true, p.consumed))
	}

	repo := NewQueryRepository(db)
	base := LinkQuery{
		From:           time.Now().Add(-time.Hour),
		To:             time.Now().Add(time.Hour),
		ProductPattern: `^/il/[^/]+/(probate)$`,
	}

	total, err := repo.CountLinks(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	var seen int
	for page := 0; ; page++ {
		q := base
		q.Offset, q.Limit = page*2, 2
		rows, err := repo.FindLinks(ctx, q)
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		seen += len(rows)
	}
	assert.Equal(t, int(total), seen)

	grouped := base
	grouped.GroupSize = 2
	grouped.Limit = 10
	groups, err := repo.CountLinks(ctx, grouped)
	require.NoError(t, err)
	assert.Equal(t, int64(1), groups)

	rows, err := repo.FindLinks(ctx, grouped)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ownerA, rows[0].Owner.ID)
	assert.Equal(t, "/il/sangamon/probate", rows[0].ProductName)

	filtered := base
	filtered.Limit = 10
	filtered.Matches = []FieldMatch{{Field: "Full Name", Pattern: "owner a"}, {Field: "Lien Amount", Pattern: "^12"}}
	rows, err = repo.FindLinks(ctx, filtered)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	filtered.Matches = []FieldMatch{{Field: "Mailing Planet", Pattern: "x"}}
	_, err = repo.CountLinks(ctx, filtered)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestQueryRepository_ZipRestriction(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	links := NewLinkRepository(db)

	owner, springfield, product := seedGraph(t, db, "a")
	chatham, _, err := NewPropertyRepository(db).Create(ctx, &models.Property{
		IdentityKey:     "property-chatham",
		PropertyDetails: models.PropertyDetails{Address: "9 Elm St", State: "IL", Zip: "62629"},
	})
	require.NoError(t, err)

	for i, property := range []int64{springfield, chatham.ID} {
		l, _, err := links.Create(ctx, &models.OwnerProductProperty{
			Fingerprint: fmt.Sprintf("zip-fp-%d", i), OwnerID: &owner, PropertyID: &property, ProductID: product,
		})
		require.NoError(t, err)
		require.NoError(t, links.SetFlags(ctx, l.ID, true, true))
	}

	repo := NewQueryRepository(db)
	base := LinkQuery{
		From:  time.Now().Add(-time.Hour),
		To:    time.Now().Add(time.Hour),
		Limit: 10,
	}

	tests := []struct {
		name      string
		zip       string
		wantCount int64
	}{
		{name: "no restriction", wantCount: 2},
		{name: "chatham only", zip: "62629", wantCount: 1},
		{name: "springfield only", zip: "62701", wantCount: 1},
		{name: "unused zip", zip: "60601", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			q.Zip = tt.zip

			count, err := repo.CountLinks(ctx, q)
			require.NoError(t, err)
			rows, err := repo.FindLinks(ctx, q)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCount, count)
			assert.Len(t, rows, int(tt.wantCount))
			for _, row := range rows {
				if tt.zip != "" {
					assert.Equal(t, tt.zip, row.Property.Zip)
				}
			}
		})
	}
}

// seedGraph creates an owner and a property tagged with suffix and the
// shared probate product, returning their ids.
func seedGraph(t *testing.T, db *database.Database, suffix string) (ownerID, propertyID, productID int64) {
	t.Helper()
	ctx := context.Background()

	owner, _, err := NewOwnerRepository(db).Create(ctx, &models.Owner{
		IdentityKey:  "owner-" + suffix,
		OwnerDetails: models.OwnerDetails{FullName: "OWNER " + suffix, OwnerType: "PERSON"},
	})
	require.NoError(t, err)

	property, _, err := NewPropertyRepository(db).Create(ctx, &models.Property{
		IdentityKey:     "property-" + suffix,
		Extra:           map[string]string{"Lien Amount": "1200"},
		PropertyDetails: models.PropertyDetails{Address: suffix + " Main St", State: "IL", Zip: "62701"},
	})
	require.NoError(t, err)

	product, err := NewProductRepository(db).Create(ctx, "/il/sangamon/probate")
	require.NoError(t, err)

	return owner.ID, property.ID, product.ID
}

func seedProducer(t *testing.T, repo ProducerRepository, source, state, county string, priority *int) {
	t.Helper()
	_, err := repo.Seed(context.Background(), models.PublicRecordProducer{
		Source: source, State: state, County: county, Priority: priority,
	})
	require.NoError(t, err)
}

func intPtr(i int) *int {
	return &i
}
