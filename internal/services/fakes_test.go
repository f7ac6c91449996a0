package services

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stwalsh4118/publicrecords/internal/models"
	"github.com/stwalsh4118/publicrecords/internal/repository"
)

// store is an in-memory stand-in for the four tables the upsert engine
// writes. Each repository view shares the same lock and counters.
type store struct {
	mu         sync.Mutex
	nextID     int64
	owners     map[string]*models.Owner
	properties map[string]*models.Property
	products   map[string]*models.Product
	links      map[string]*models.OwnerProductProperty
	writes     int
}

func newStore(productNames ...string) *store {
	s := &store{
		owners:     map[string]*models.Owner{},
		properties: map[string]*models.Property{},
		products:   map[string]*models.Product{},
		links:      map[string]*models.OwnerProductProperty{},
	}
	for _, name := range productNames {
		s.nextID++
		s.products[name] = &models.Product{ID: s.nextID, Name: name}
	}
	return s
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) engine() UpsertEngine {
	return NewUpsertEngine(ownerView{s}, propertyView{s}, productView{s}, linkView{s}, testLogger())
}

func (s *store) onlyLink() *models.OwnerProductProperty {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		c := *l
		return &c
	}
	return nil
}

type ownerView struct{ s *store }

func (v ownerView) FindByIdentityKey(_ context.Context, key string) (*models.Owner, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if o, ok := v.s.owners[key]; ok {
		c := *o
		return &c, nil
	}
	return nil, nil
}

func (v ownerView) Create(_ context.Context, o *models.Owner) (*models.Owner, bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if existing, ok := v.s.owners[o.IdentityKey]; ok {
		c := *existing
		return &c, false, nil
	}
	stored := *o
	stored.ID = v.s.id()
	stored.CreatedAt = time.Now()
	v.s.owners[o.IdentityKey] = &stored
	v.s.writes++
	c := stored
	return &c, true, nil
}

func (v ownerView) UpdateDetails(_ context.Context, id int64, d models.OwnerDetails) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, o := range v.s.owners {
		if o.ID == id {
			o.OwnerDetails = d
			v.s.writes++
			return nil
		}
	}
	return repository.ErrNotFound
}

type propertyView struct{ s *store }

func (v propertyView) FindByIdentityKey(_ context.Context, key string) (*models.Property, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if p, ok := v.s.properties[key]; ok {
		c := *p
		c.Extra = maps.Clone(p.Extra)
		return &c, nil
	}
	return nil, nil
}

func (v propertyView) Create(_ context.Context, p *models.Property) (*models.Property, bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if existing, ok := v.s.properties[p.IdentityKey]; ok {
		c := *existing
		c.Extra = maps.Clone(existing.Extra)
		return &c, false, nil
	}
	stored := *p
	stored.ID = v.s.id()
	stored.Extra = maps.Clone(p.Extra)
	v.s.properties[p.IdentityKey] = &stored
	v.s.writes++
	c := stored
	c.Extra = maps.Clone(stored.Extra)
	return &c, true, nil
}

func (v propertyView) Update(_ context.Context, p *models.Property) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	stored := *p
	stored.Extra = maps.Clone(p.Extra)
	v.s.properties[p.IdentityKey] = &stored
	v.s.writes++
	return nil
}

type productView struct{ s *store }

func (v productView) FindByName(_ context.Context, name string) (*models.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if p, ok := v.s.products[models.CanonicalProductName(name)]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (v productView) Create(_ context.Context, name string) (*models.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	name = models.CanonicalProductName(name)
	if _, ok := v.s.products[name]; !ok {
		v.s.products[name] = &models.Product{ID: v.s.id(), Name: name}
	}
	c := *v.s.products[name]
	return &c, nil
}

type linkView struct{ s *store }

func (v linkView) FindByFingerprint(_ context.Context, fp string) (*models.OwnerProductProperty, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if l, ok := v.s.links[fp]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

func (v linkView) Create(_ context.Context, l *models.OwnerProductProperty) (*models.OwnerProductProperty, bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if existing, ok := v.s.links[l.Fingerprint]; ok {
		c := *existing
		return &c, false, nil
	}
	stored := *l
	stored.ID = v.s.id()
	stored.CreatedAt = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	stored.UpdatedAt = stored.CreatedAt
	v.s.links[l.Fingerprint] = &stored
	v.s.writes++
	c := stored
	return &c, true, nil
}

func (v linkView) UpdateDetails(_ context.Context, id int64, d models.LinkDetails) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, l := range v.s.links {
		if l.ID == id {
			l.LinkDetails = d
			v.s.writes++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (v linkView) SetFlags(_ context.Context, id int64, processed, consumed bool) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, l := range v.s.links {
		if l.ID == id {
			l.Processed, l.Consumed = processed, consumed
			return nil
		}
	}
	return repository.ErrNotFound
}

// MockProductRepository is a mock implementation of ProductRepository for testing
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, name string) (*models.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

// MockOwnerRepository is a mock implementation of OwnerRepository for testing
type MockOwnerRepository struct {
	mock.Mock
}

func (m *MockOwnerRepository) FindByIdentityKey(ctx context.Context, key string) (*models.Owner, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockOwnerRepository) Create(ctx context.Context, o *models.Owner) (*models.Owner, bool, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Owner), args.Bool(1), args.Error(2)
}

func (m *MockOwnerRepository) UpdateDetails(ctx context.Context, id int64, d models.OwnerDetails) error {
	args := m.Called(ctx, id, d)
	return args.Error(0)
}
