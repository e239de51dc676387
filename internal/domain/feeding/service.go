package feeding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/db"
)

// Ledger posts food consumption. Implemented by the inventory service.
type Ledger interface {
	PostFeedingConsumption(ctx context.Context, projectID, feedingID uuid.UUID, consumed map[uuid.UUID]float64, userID string) error
}

type Service struct {
	repo   Repository
	runner db.Runner
	ledger Ledger
	log    zerolog.Logger
}

func NewService(repo Repository, runner db.Runner, ledger Ledger, log zerolog.Logger) *Service {
	return &Service{repo: repo, runner: runner, ledger: ledger, log: log}
}

type Input struct {
	FeedDate      time.Time             `json:"feed_date"`
	Meal          string                `json:"meal"`
	KennelsFed    []int                 `json:"kennels_fed"`
	KennelsNotFed []int                 `json:"kennels_not_fed"`
	FoodConsumed  map[uuid.UUID]float64 `json:"food_consumed"`
	PhotoIDs      []string              `json:"photo_ids"`
}

func (in *Input) validate() error {
	if in.FeedDate.IsZero() {
		return apperr.InputField("feed_date", "is required")
	}
	if !validMeals[in.Meal] {
		return apperr.InputField("meal", "must be Morning or Evening")
	}
	if len(in.KennelsFed) == 0 && len(in.KennelsNotFed) == 0 {
		return apperr.InputField("kennels_fed", "at least one kennel must be reported")
	}
	for _, n := range append(in.KennelsFed, in.KennelsNotFed...) {
		if n < 1 {
			return apperr.InputField("kennels_fed", "kennel numbers must be positive")
		}
	}
	for id, kg := range in.FoodConsumed {
		if kg < 0 {
			return apperr.InputField("food_consumed", "negative quantity for "+id.String())
		}
	}
	return nil
}

// Record writes a feeding round and its food deductions in one transaction.
// One round per (day, meal).
func (s *Service) Record(ctx context.Context, projectID uuid.UUID, in Input, userID string) (*Record, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	day := in.FeedDate.Truncate(24 * time.Hour)

	var rec *Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, projectID, day, in.Meal)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("%s feeding for %s is already recorded", in.Meal, day.Format("2006-01-02"))
		}
		rec = &Record{
			ID:            uuid.New(),
			ProjectID:     projectID,
			FeedDate:      day,
			Meal:          in.Meal,
			KennelsFed:    in.KennelsFed,
			KennelsNotFed: in.KennelsNotFed,
			FoodConsumed:  in.FoodConsumed,
			PhotoIDs:      in.PhotoIDs,
			CreatedBy:     userID,
		}
		if rec.KennelsFed == nil {
			rec.KennelsFed = []int{}
		}
		if rec.KennelsNotFed == nil {
			rec.KennelsNotFed = []int{}
		}
		if rec.FoodConsumed == nil {
			rec.FoodConsumed = map[uuid.UUID]float64{}
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		if len(rec.FoodConsumed) > 0 {
			if err := s.ledger.PostFeedingConsumption(ctx, projectID, rec.ID, rec.FoodConsumed, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("meal", rec.Meal).Int("kennels_fed", len(rec.KennelsFed)).
		Msg("feeding recorded")
	return rec, nil
}

// ListByDate returns the rounds for a calendar day.
func (s *Service) ListByDate(ctx context.Context, projectID uuid.UUID, day time.Time) ([]*Record, error) {
	return s.repo.ListByDate(ctx, projectID, day.Truncate(24*time.Hour))
}
