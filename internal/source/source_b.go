package source

import (
	"math/rand"

	"marketpulse/internal/domain"
)

// sourceB simulates the physical store feed: smaller batches, slightly
// higher prices, a store location instead of a rating.
type sourceB struct{ rng *rand.Rand }

func NewSourceB(rng *rand.Rand) Generator { return &sourceB{rng: rng} }

func (s *sourceB) Name() string { return domain.SourceB }

func (s *sourceB) Fetch(params domain.FilterParams) []domain.DataRecord {
	count := 350 + s.rng.Intn(51)
	yearFrom, yearTo := params.YearRange()

	// Pre-narrow brands to the requested companies so most candidates
	// survive the filter. The predicate below stays authoritative.
	var requested []string
	if len(params.Companies) > 0 {
		for _, category := range Categories {
			for _, b := range Brands[category] {
				if containsBrand(params.Companies, b) {
					requested = append(requested, b)
				}
			}
		}
	}

	var records []domain.DataRecord
	for i := 0; i < count; i++ {
		category := pick(s.rng, Categories)
		brand := ""
		if len(requested) > 0 {
			brand = pick(s.rng, requested)
		} else {
			brand = pick(s.rng, Brands[category])
		}
		location := pick(s.rng, Locations)
		r := domain.DataRecord{
			Source:        domain.SourceB,
			Category:      category,
			Brand:         brand,
			Price:         round2(15 + s.rng.Float64()*1185),
			PurchaseDate:  randomDate(s.rng, yearFrom, yearTo),
			Quantity:      1 + s.rng.Intn(3),
			Platform:      "Store",
			Location:      &location,
			PaymentMethod: pick(s.rng, storePayments),
			ProductID:     productID(s.rng, "S"),
		}
		if params.Matches(r) {
			records = append(records, r)
		}
	}
	return records
}

func containsBrand(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
