package domain

import "time"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is final. A task never leaves
// completed or failed.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Source tags for generated records.
const (
	SourceA = "source_a"
	SourceB = "source_b"
)

type Task struct {
	ID           string
	Name         string
	Status       TaskStatus
	FilterParams FilterParams
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FilterParams describes what a task should collect. All keys are
// optional; absent or empty keys impose no restriction. Unknown keys in
// the serialized form are ignored. data_sources never carries omitempty:
// an explicitly empty list means "no sources" and must survive the
// marshal round trip, while absent (nil) means both.
type FilterParams struct {
	YearFrom    *int     `json:"year_from,omitempty"`
	YearTo      *int     `json:"year_to,omitempty"`
	Companies   []string `json:"companies,omitempty" validate:"omitempty,dive,required"`
	Categories  []string `json:"categories,omitempty" validate:"omitempty,dive,required"`
	DataSources []string `json:"data_sources" validate:"omitempty,dive,required"`
}

// ActiveSources returns the source tags a task should pull from,
// defaulting to both when data_sources is absent.
func (p FilterParams) ActiveSources() []string {
	if p.DataSources == nil {
		return []string{SourceA, SourceB}
	}
	return p.DataSources
}

// YearRange returns the generation window, defaulting to [2020, 2025]
// when a bound is absent.
func (p FilterParams) YearRange() (int, int) {
	from, to := 2020, 2025
	if p.YearFrom != nil {
		from = *p.YearFrom
	}
	if p.YearTo != nil {
		to = *p.YearTo
	}
	return from, to
}

// DataRecord is one synthetic purchase produced while processing a
// task. Rating is set only for source_a records, Location only for
// source_b records.
type DataRecord struct {
	ID            string
	TaskID        string
	Source        string
	Category      string
	Brand         string
	Price         float64
	PurchaseDate  time.Time
	Quantity      int
	Rating        *float64
	Platform      string
	Location      *string
	PaymentMethod string
	ProductID     string
	CreatedAt     time.Time
}
