package source

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain"
)

func rng() *rand.Rand { return rand.New(rand.NewSource(42)) }

func intp(v int) *int { return &v }

func TestSourceAShape(t *testing.T) {
	records := NewSourceA(rng()).Fetch(domain.FilterParams{})
	require.NotEmpty(t, records)
	// No filters: every candidate survives, so the batch size is the
	// raw volume range.
	assert.GreaterOrEqual(t, len(records), 750)
	assert.LessOrEqual(t, len(records), 800)

	for _, r := range records {
		assert.Equal(t, domain.SourceA, r.Source)
		assert.Equal(t, "Online", r.Platform)
		require.NotNil(t, r.Rating)
		assert.GreaterOrEqual(t, *r.Rating, 1.0)
		assert.LessOrEqual(t, *r.Rating, 5.0)
		assert.Nil(t, r.Location)
		assert.GreaterOrEqual(t, r.Price, 10.0)
		assert.LessOrEqual(t, r.Price, 1000.0)
		assert.GreaterOrEqual(t, r.Quantity, 1)
		assert.LessOrEqual(t, r.Quantity, 5)
		assert.True(t, strings.HasPrefix(r.ProductID, "P"))
		assert.Len(t, r.ProductID, 5)
		assert.Contains(t, Brands[r.Category], r.Brand)
	}
}

func TestSourceBShape(t *testing.T) {
	records := NewSourceB(rng()).Fetch(domain.FilterParams{})
	require.NotEmpty(t, records)
	assert.GreaterOrEqual(t, len(records), 350)
	assert.LessOrEqual(t, len(records), 400)

	for _, r := range records {
		assert.Equal(t, domain.SourceB, r.Source)
		assert.Equal(t, "Store", r.Platform)
		assert.Nil(t, r.Rating)
		require.NotNil(t, r.Location)
		assert.Contains(t, Locations, *r.Location)
		assert.GreaterOrEqual(t, r.Price, 15.0)
		assert.LessOrEqual(t, r.Price, 1200.0)
		assert.GreaterOrEqual(t, r.Quantity, 1)
		assert.LessOrEqual(t, r.Quantity, 3)
		assert.True(t, strings.HasPrefix(r.ProductID, "S"))
	}
}

func TestGeneratorsHonorCompanyFilter(t *testing.T) {
	params := domain.FilterParams{Companies: []string{"Nike"}}
	for _, gen := range Registry(rng()) {
		for _, r := range gen.Fetch(params) {
			assert.Equal(t, "Nike", r.Brand, "generator %s leaked brand %s", gen.Name(), r.Brand)
		}
	}
}

func TestGeneratorsHonorYearRange(t *testing.T) {
	params := domain.FilterParams{YearFrom: intp(2021), YearTo: intp(2021)}
	for _, gen := range Registry(rng()) {
		records := gen.Fetch(params)
		require.NotEmpty(t, records)
		for _, r := range records {
			assert.Equal(t, 2021, r.PurchaseDate.Year())
		}
	}
}

func TestSourceBPreFilterFallsBackOnUnknownCompany(t *testing.T) {
	// A company outside the catalog leaves the pre-filter empty; brands
	// then come from the full per-category lists and the predicate
	// rejects everything.
	records := NewSourceB(rng()).Fetch(domain.FilterParams{Companies: []string{"NoSuchBrand"}})
	assert.Empty(t, records)
}

func TestCategoryFilterYield(t *testing.T) {
	records := NewSourceA(rng()).Fetch(domain.FilterParams{Categories: []string{"Toys"}})
	require.NotEmpty(t, records)
	for _, r := range records {
		assert.Equal(t, "Toys", r.Category)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := Registry(rng())
	require.Len(t, reg, 2)
	assert.Equal(t, domain.SourceA, reg[domain.SourceA].Name())
	assert.Equal(t, domain.SourceB, reg[domain.SourceB].Name())
}
