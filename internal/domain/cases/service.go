package cases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/db"
	"github.com/abctrack/abctrack/internal/platform/metrics"
)

// Ledger posts medicine consumption against the inventory ledger. Implemented
// by the inventory service; the call joins the engine's transaction through
// the context.
type Ledger interface {
	PostConsumption(ctx context.Context, projectID, caseID uuid.UUID, stage string, medicines map[string]float64, userID string) error
}

// Kennels assigns and frees kennels. Implemented by the kennel service.
type Kennels interface {
	Assign(ctx context.Context, projectID uuid.UUID, number int, caseID uuid.UUID) error
	Release(ctx context.Context, projectID, caseID uuid.UUID) error
}

// Service is the lifecycle engine. Every stage action runs in a single
// transaction via the runner; kennel and ledger effects commit with the
// stage record or not at all.
type Service struct {
	repo    Repository
	runner  db.Runner
	ledger  Ledger
	kennels Kennels
	log     zerolog.Logger
}

func NewService(repo Repository, runner db.Runner, ledger Ledger, kennels Kennels, log zerolog.Logger) *Service {
	return &Service{repo: repo, runner: runner, ledger: ledger, kennels: kennels, log: log}
}

func (s *Service) Get(ctx context.Context, projectID, id uuid.UUID) (*Case, error) {
	c, err := s.repo.Get(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("case", id.String())
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) GetByNumber(ctx context.Context, projectID uuid.UUID, number string) (*Case, error) {
	c, err := s.repo.GetByNumber(ctx, projectID, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("case", number)
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, projectID uuid.UUID, f ListFilter, limit, offset int) ([]*Case, int, error) {
	if f.State != "" {
		if _, ok := allowedActions[f.State]; !ok {
			return nil, 0, apperr.InputField("status", "unknown case state "+f.State)
		}
	}
	return s.repo.List(ctx, projectID, f, limit, offset)
}

// Catch opens a new case: allocates the next case number for the catch
// month and writes the catching record. The counter advance and the case
// insert share a transaction, so an abort leaves at most a gap in the
// serial sequence.
func (s *Service) Catch(ctx context.Context, projectID uuid.UUID, in CatchingInput, userID string) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		org, proj, err := s.repo.ProjectCodes(ctx, projectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("project", projectID.String())
			}
			return err
		}
		year, month := in.CaughtAt.Year(), in.CaughtAt.Month()
		serial, err := s.repo.NextSerial(ctx, projectID, year, month)
		if err != nil {
			return err
		}
		c = &Case{
			ID:         uuid.New(),
			ProjectID:  projectID,
			CaseNumber: FormatCaseNumber(org, proj, month, serial),
			State:      StateCaught,
		}
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		rec := &CatchingRecord{
			CaseID:    c.ID,
			CaughtAt:  in.CaughtAt,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Address:   in.Address,
			Ward:      in.Ward,
			PhotoIDs:  in.PhotoIDs,
			Remarks:   in.Remarks,
			CreatedBy: userID,
		}
		if err := s.repo.InsertCatching(ctx, rec); err != nil {
			return err
		}
		c.Catching = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CaseCreated()
	s.log.Info().Str("case_number", c.CaseNumber).Str("project_id", projectID.String()).
		Msg("case opened")
	return c, nil
}

// CatchWithNumber opens a case under a caller-supplied case number. Used by
// bulk upload, where numbers come from the sheet. The month counter is
// advanced past the supplied serial so later live catches never collide.
func (s *Service) CatchWithNumber(ctx context.Context, projectID uuid.UUID, number string, in CatchingInput, userID string) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	_, _, month, serial, err := ParseCaseNumber(number)
	if err != nil {
		return nil, apperr.InputField("case_number", err.Error())
	}

	var c *Case
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.CaseNumberExists(ctx, number)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("case number %s already exists", number)
		}
		year := in.CaughtAt.Year()
		if err := s.repo.AdvanceSerial(ctx, projectID, year, month, serial); err != nil {
			return err
		}
		c = &Case{
			ID:         uuid.New(),
			ProjectID:  projectID,
			CaseNumber: number,
			State:      StateCaught,
		}
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		rec := &CatchingRecord{
			CaseID:    c.ID,
			CaughtAt:  in.CaughtAt,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Address:   in.Address,
			Ward:      in.Ward,
			PhotoIDs:  in.PhotoIDs,
			Remarks:   in.Remarks,
			CreatedBy: userID,
		}
		if err := s.repo.InsertCatching(ctx, rec); err != nil {
			return err
		}
		c.Catching = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.CaseCreated()
	return c, nil
}

// guard locks the case and checks the action's precondition.
func (s *Service) guard(ctx context.Context, projectID, id uuid.UUID, action string) (*Case, error) {
	c, err := s.repo.GetForUpdate(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("case", id.String())
		}
		return nil, err
	}
	if !actionAllowed(action, c.State) {
		return nil, apperr.State(c.State, action, allowedActions[c.State])
	}
	return c, nil
}

// RecordObservation moves Caught -> In Kennel and occupies the chosen kennel.
func (s *Service) RecordObservation(ctx context.Context, projectID, id uuid.UUID, in ObservationInput, userID string) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.guard(ctx, projectID, id, ActionObservation)
		if err != nil {
			return err
		}
		if err := s.kennels.Assign(ctx, projectID, in.KennelNumber, id); err != nil {
			return err
		}
		rec := &ObservationRecord{
			CaseID:            id,
			KennelNumber:      in.KennelNumber,
			Gender:            in.Gender,
			Age:               in.Age,
			Colors:            in.Colors,
			BodyCondition:     in.BodyCondition,
			Temperament:       in.Temperament,
			HasInjuries:       in.HasInjuries,
			InjuryDescription: in.InjuryDescription,
			PhotoID:           in.PhotoID,
			ObservedAt:        in.ObservedAt,
			CreatedBy:         userID,
		}
		if err := s.repo.InsertObservation(ctx, rec); err != nil {
			return err
		}
		c.Observation = rec
		c.State = StateInKennel
		c.CurrentKennel = &in.KennelNumber
		return s.repo.UpdateState(ctx, id, c.State, c.CurrentKennel)
	})
	if err != nil {
		return nil, err
	}
	metrics.StageTransition(StateInKennel)
	return c, nil
}

// RecordSurgery moves In Kennel -> Surgery Completed or Surgery Cancelled.
// When the vet posts an empty medicines map for a completed surgery the
// standard protocol for the animal's weight and gender is consumed instead.
func (s *Service) RecordSurgery(ctx context.Context, projectID, id uuid.UUID, in SurgeryInput, userID string) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.guard(ctx, projectID, id, ActionSurgery)
		if err != nil {
			return err
		}
		if c.Observation == nil {
			return apperr.Invariant("case %s has no observation record", c.CaseNumber)
		}

		rec := &SurgeryRecord{
			CaseID:             id,
			SurgeryDate:        in.SurgeryDate,
			Weight:             in.Weight,
			SkinCondition:      in.SkinCondition,
			Cancelled:          in.Cancelled,
			CancellationReason: in.CancellationReason,
			Medicines:          in.Medicines,
			PhotoIDs:           in.PhotoIDs,
			Remarks:            in.Remarks,
			CreatedBy:          userID,
		}

		state := StateSurgeryCancelled
		if !in.Cancelled {
			state = StateSurgeryCompleted
			st := SurgeryCastration
			if c.Observation.Gender == GenderFemale {
				st = SurgeryOvariohysterectomy
			}
			rec.SurgeryType = &st
			if len(rec.Medicines) == 0 {
				rec.Medicines = SurgeryDosage(in.Weight, c.Observation.Gender)
			}
			if err := s.ledger.PostConsumption(ctx, projectID, id, "surgery", rec.Medicines, userID); err != nil {
				return err
			}
		}
		if rec.Medicines == nil {
			rec.Medicines = map[string]float64{}
		}

		if err := s.repo.InsertSurgery(ctx, rec); err != nil {
			return err
		}
		c.Surgery = rec
		c.State = state
		return s.repo.UpdateState(ctx, id, state, c.CurrentKennel)
	})
	if err != nil {
		return nil, err
	}
	metrics.StageTransition(c.State)
	s.log.Info().Str("case_number", c.CaseNumber).Str("state", c.State).Msg("surgery recorded")
	return c, nil
}

// RecordTreatment appends a daily treatment and moves the case to Under
// Treatment. Treatments never auto-fill; the caretaker posts what was given.
func (s *Service) RecordTreatment(ctx context.Context, projectID, id uuid.UUID, in TreatmentInput, userID string) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.guard(ctx, projectID, id, ActionTreatment)
		if err != nil {
			return err
		}
		if in.DayPostSurgery < 1 {
			in.DayPostSurgery = len(c.Treatments) + 1
		}
		rec := &TreatmentRecord{
			ID:             uuid.New(),
			CaseID:         id,
			TreatmentDate:  in.TreatmentDate,
			DayPostSurgery: in.DayPostSurgery,
			Medicines:      in.Medicines,
			WoundCondition: in.WoundCondition,
			FoodIntake:     in.FoodIntake,
			WaterIntake:    in.WaterIntake,
			Remarks:        in.Remarks,
			PhotoIDs:       in.PhotoIDs,
			CreatedBy:      userID,
		}
		if rec.Medicines == nil {
			rec.Medicines = map[string]float64{}
		}
		if len(rec.Medicines) > 0 {
			if err := s.ledger.PostConsumption(ctx, projectID, id, "treatment", rec.Medicines, userID); err != nil {
				return err
			}
		}
		if err := s.repo.InsertTreatment(ctx, rec); err != nil {
			return err
		}
		c.Treatments = append(c.Treatments, rec)
		c.State = StateUnderTreatment
		return s.repo.UpdateState(ctx, id, c.State, c.CurrentKennel)
	})
	if err != nil {
		return nil, err
	}
	metrics.StageTransition(StateUnderTreatment)
	return c, nil
}

// RecordRelease closes the case and frees its kennel.
func (s *Service) RecordRelease(ctx context.Context, projectID, id uuid.UUID, in ReleaseInput, userID string) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.guard(ctx, projectID, id, ActionRelease)
		if err != nil {
			return err
		}
		rec := &ReleaseRecord{
			CaseID:     id,
			ReleasedAt: in.ReleasedAt,
			Latitude:   in.Latitude,
			Longitude:  in.Longitude,
			Address:    in.Address,
			PhotoIDs:   in.PhotoIDs,
			CreatedBy:  userID,
		}
		if err := s.repo.InsertRelease(ctx, rec); err != nil {
			return err
		}
		if err := s.kennels.Release(ctx, projectID, id); err != nil {
			return err
		}
		c.Release = rec
		c.State = StateReleased
		c.CurrentKennel = nil
		return s.repo.UpdateState(ctx, id, StateReleased, nil)
	})
	if err != nil {
		return nil, err
	}
	metrics.StageTransition(StateReleased)
	s.log.Info().Str("case_number", c.CaseNumber).Msg("case released")
	return c, nil
}

// MarkDeceased closes the case from any non-terminal state and frees its
// kennel if one was held.
func (s *Service) MarkDeceased(ctx context.Context, projectID, id uuid.UUID, in DeceasedInput, userID string) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.guard(ctx, projectID, id, ActionDeceased)
		if err != nil {
			return err
		}
		rec := &DeceasedRecord{
			CaseID:    id,
			DiedAt:    in.DiedAt,
			Cause:     in.Cause,
			Remarks:   in.Remarks,
			CreatedBy: userID,
		}
		if err := s.repo.InsertDeceased(ctx, rec); err != nil {
			return err
		}
		if c.CurrentKennel != nil {
			if err := s.kennels.Release(ctx, projectID, id); err != nil {
				return err
			}
		}
		c.Deceased = rec
		c.State = StateDeceased
		c.CurrentKennel = nil
		return s.repo.UpdateState(ctx, id, StateDeceased, nil)
	})
	if err != nil {
		return nil, err
	}
	metrics.StageTransition(StateDeceased)
	s.log.Info().Str("case_number", c.CaseNumber).Str("cause", in.Cause).Msg("case marked deceased")
	return c, nil
}

// Stage edits rewrite the record in place. They never change the case's
// state and never touch the ledger; a wrong consumption is corrected with
// an inventory adjustment.

func (s *Service) EditCatching(ctx context.Context, projectID, id uuid.UUID, in CatchingInput) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.locked(ctx, projectID, id)
		if err != nil {
			return err
		}
		if c.Catching == nil {
			return apperr.NotFound("catching record", id.String())
		}
		rec := c.Catching
		rec.CaughtAt = in.CaughtAt
		rec.Latitude = in.Latitude
		rec.Longitude = in.Longitude
		rec.Address = in.Address
		rec.Ward = in.Ward
		rec.PhotoIDs = in.PhotoIDs
		rec.Remarks = in.Remarks
		return s.repo.UpdateCatching(ctx, rec)
	})
	return c, err
}

func (s *Service) EditObservation(ctx context.Context, projectID, id uuid.UUID, in ObservationInput) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.locked(ctx, projectID, id)
		if err != nil {
			return err
		}
		if c.Observation == nil {
			return apperr.NotFound("observation record", id.String())
		}
		// The kennel assignment is not editable here; moving the animal
		// goes through the kennel endpoints.
		rec := c.Observation
		rec.Gender = in.Gender
		rec.Age = in.Age
		rec.Colors = in.Colors
		rec.BodyCondition = in.BodyCondition
		rec.Temperament = in.Temperament
		rec.HasInjuries = in.HasInjuries
		rec.InjuryDescription = in.InjuryDescription
		rec.PhotoID = in.PhotoID
		return s.repo.UpdateObservation(ctx, rec)
	})
	return c, err
}

func (s *Service) EditSurgery(ctx context.Context, projectID, id uuid.UUID, in SurgeryInput) (*Case, error) {
	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.locked(ctx, projectID, id)
		if err != nil {
			return err
		}
		if c.Surgery == nil {
			return apperr.NotFound("surgery record", id.String())
		}
		if len(in.Medicines) > 0 {
			return apperr.Input("surgery medicines are immutable; post an inventory adjustment instead")
		}
		rec := c.Surgery
		if !in.SurgeryDate.IsZero() {
			rec.SurgeryDate = in.SurgeryDate
		}
		if in.Weight > 0 {
			if in.Weight < MinSurgeryWeight || in.Weight > MaxSurgeryWeight {
				return apperr.InputField("weight", "out of surgical range")
			}
			rec.Weight = in.Weight
		}
		if in.SkinCondition != "" {
			if !validSkinConditions[in.SkinCondition] {
				return apperr.InputField("skin_condition", "unknown skin condition")
			}
			rec.SkinCondition = in.SkinCondition
		}
		if len(in.PhotoIDs) > 0 {
			if err := validatePhotos("photo_ids", in.PhotoIDs, false); err != nil {
				return err
			}
			rec.PhotoIDs = in.PhotoIDs
		}
		if in.Remarks != nil {
			rec.Remarks = in.Remarks
		}
		return s.repo.UpdateSurgery(ctx, rec)
	})
	return c, err
}

func (s *Service) EditRelease(ctx context.Context, projectID, id uuid.UUID, in ReleaseInput) (*Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var c *Case
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.locked(ctx, projectID, id)
		if err != nil {
			return err
		}
		if c.Release == nil {
			return apperr.NotFound("release record", id.String())
		}
		rec := c.Release
		rec.ReleasedAt = in.ReleasedAt
		rec.Latitude = in.Latitude
		rec.Longitude = in.Longitude
		rec.Address = in.Address
		rec.PhotoIDs = in.PhotoIDs
		return s.repo.UpdateRelease(ctx, rec)
	})
	return c, err
}

func (s *Service) locked(ctx context.Context, projectID, id uuid.UUID) (*Case, error) {
	c, err := s.repo.GetForUpdate(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("case", id.String())
		}
		return nil, err
	}
	return c, nil
}
