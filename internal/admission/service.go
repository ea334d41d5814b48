package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"maitred/internal/models"
)

// RulesStore loads a restaurant's availability configuration.
type RulesStore interface {
	GetOpeningHours(ctx context.Context, restaurantID int64) ([]models.OpeningHours, error)
	GetSpecialPeriods(ctx context.Context, restaurantID int64) ([]models.SpecialPeriod, error)
	GetCutOffTimes(ctx context.Context, restaurantID int64) ([]models.CutOffTime, error)
}

// Service is the synchronous admission entrypoint used when a booking
// request arrives: it loads the restaurant's rules and runs the pure
// validator against them.
type Service struct {
	store  RulesStore
	logger *zerolog.Logger
}

// NewService creates an admission service.
func NewService(store RulesStore, logger *zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CheckSlot decides whether a reservation at clock ("HH:MM") on date may be
// accepted for the restaurant. Rejections come back as a Result, never as an
// error; errors mean the rules could not be loaded or were malformed.
func (s *Service) CheckSlot(ctx context.Context, restaurantID int64, date time.Time, clock string, now time.Time) (Result, error) {
	rules, err := s.loadRules(ctx, restaurantID)
	if err != nil {
		return Result{}, err
	}

	res, err := IsAdmissible(rules, date, clock, now)
	if err != nil {
		return Result{}, err
	}

	if !res.Admissible {
		s.logger.Debug().
			Int64("restaurant_id", restaurantID).
			Str("date", date.Format("2006-01-02")).
			Str("time", clock).
			Str("reason", string(res.Reason)).
			Msg("booking slot rejected")
	}
	return res, nil
}

func (s *Service) loadRules(ctx context.Context, restaurantID int64) (Rules, error) {
	hours, err := s.store.GetOpeningHours(ctx, restaurantID)
	if err != nil {
		return Rules{}, fmt.Errorf("load opening hours: %w", err)
	}
	periods, err := s.store.GetSpecialPeriods(ctx, restaurantID)
	if err != nil {
		return Rules{}, fmt.Errorf("load special periods: %w", err)
	}
	cutoffs, err := s.store.GetCutOffTimes(ctx, restaurantID)
	if err != nil {
		return Rules{}, fmt.Errorf("load cutoff times: %w", err)
	}

	return Rules{Hours: hours, SpecialPeriods: periods, CutOffs: cutoffs}, nil
}
