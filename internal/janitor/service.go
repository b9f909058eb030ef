package janitor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"marketpulse/internal/store"
)

// Service prunes finished tasks past the retention window on a cron
// schedule. Records go with their task via the FK cascade.
type Service struct {
	store  store.Store
	cron   *cron.Cron
	maxAge time.Duration
}

func NewService(st store.Store, maxAge time.Duration) *Service {
	return &Service{store: st, cron: cron.New(), maxAge: maxAge}
}

func (s *Service) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("cron", spec).Dur("max_age", s.maxAge).Msg("retention janitor started")
	return nil
}

func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Service) sweep() {
	cutoff := time.Now().UTC().Add(-s.maxAge)
	n, err := s.store.DeleteFinishedBefore(context.Background(), cutoff)
	if err != nil {
		log.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int("deleted", n).Time("cutoff", cutoff).Msg("pruned finished tasks")
	}
}

// ValidateSpec checks a cron expression before the service starts.
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}
