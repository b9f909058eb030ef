package source

import (
	"fmt"
	"math/rand"
	"time"

	"marketpulse/internal/domain"
)

// Generator simulates one upstream system. Fetch emits a batch of
// candidate records and returns only those matching the filter; the
// post-filter yield is variable and may be zero.
type Generator interface {
	Name() string
	Fetch(params domain.FilterParams) []domain.DataRecord
}

// Registry maps source tags to generators, seeded with the given rng.
// Only the single worker goroutine calls Fetch, so one rng is shared.
func Registry(rng *rand.Rand) map[string]Generator {
	return map[string]Generator{
		domain.SourceA: NewSourceA(rng),
		domain.SourceB: NewSourceB(rng),
	}
}

func randomDate(rng *rand.Rand, yearFrom, yearTo int) time.Time {
	start := time.Date(yearFrom, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(yearTo, 12, 31, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, rng.Intn(days))
}

func pick(rng *rand.Rand, set []string) string {
	return set[rng.Intn(len(set))]
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func productID(rng *rand.Rand, prefix string) string {
	return fmt.Sprintf("%s%d", prefix, 1000+rng.Intn(9000))
}
