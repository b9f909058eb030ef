package source

import (
	"math/rand"

	"marketpulse/internal/domain"
)

// sourceA simulates the online store feed: the bigger of the two
// upstreams, and the only one carrying product ratings.
type sourceA struct{ rng *rand.Rand }

func NewSourceA(rng *rand.Rand) Generator { return &sourceA{rng: rng} }

func (s *sourceA) Name() string { return domain.SourceA }

func (s *sourceA) Fetch(params domain.FilterParams) []domain.DataRecord {
	count := 750 + s.rng.Intn(51)
	yearFrom, yearTo := params.YearRange()

	var records []domain.DataRecord
	for i := 0; i < count; i++ {
		category := pick(s.rng, Categories)
		rating := round1(1 + s.rng.Float64()*4)
		r := domain.DataRecord{
			Source:        domain.SourceA,
			Category:      category,
			Brand:         pick(s.rng, Brands[category]),
			Price:         round2(10 + s.rng.Float64()*990),
			PurchaseDate:  randomDate(s.rng, yearFrom, yearTo),
			Rating:        &rating,
			Quantity:      1 + s.rng.Intn(5),
			Platform:      "Online",
			PaymentMethod: pick(s.rng, onlinePayments),
			ProductID:     productID(s.rng, "P"),
		}
		if params.Matches(r) {
			records = append(records, r)
		}
	}
	return records
}
