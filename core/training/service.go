package training

import (
	"context"
	"errors"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/stats"
)

var (
	// errors
	ErrTrainingNotFound = errors.New("training not found")
	ErrInstanceNotFound = errors.New("training instance not found")
	ErrTrackNotFound    = errors.New("training track not found")

	errTrainingDisabled = "this training is disabled"
	errUnknownPersons   = "one or more persons do not exist"
	errScoreRequired    = "a score is required to complete this training"
	errScoreOutOfRange  = "score must be between 0 and the training's max points"
)

type (
	Repository interface {
		CreateTraining(ctx context.Context, tr Training, exec ...core.DBExecutor) (Training, error)
		QueryTrainings(ctx context.Context, exec ...core.DBExecutor) ([]Training, error)
		GetTrainingByID(ctx context.Context, id string, exec ...core.DBExecutor) (Training, error)

		CreateInstance(ctx context.Context, inst Instance, tracks []Track, exec ...core.DBExecutor) (Instance, error)
		GetInstanceByID(ctx context.Context, id string, exec ...core.DBExecutor) (Instance, error)

		GetTrackByID(ctx context.Context, id string, exec ...core.DBExecutor) (Track, error)
		UpdateTrackCompletion(ctx context.Context, track Track, exec ...core.DBExecutor) (Track, error)

		// Scope queries return denormalized rows for the aggregation engine.
		QueryTrackRowsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]stats.TrackRow, error)
		QueryTrackRowsByPlatoon(ctx context.Context, platoonID string, exec ...core.DBExecutor) ([]stats.TrackRow, error)
		QueryTrackRowsByInstance(ctx context.Context, instanceID string, exec ...core.DBExecutor) ([]stats.TrackRow, error)
	}

	ServiceInterface interface {
		CreateTraining(ctx context.Context, nt NewTraining) (Training, error)
		QueryTrainings(ctx context.Context) ([]Training, error)
		CreateInstance(ctx context.Context, ni NewInstance) (Instance, int, error)
		SetTrackCompletion(ctx context.Context, trackID string, tc TrackCompletion) (Track, error)
		CompanyOverview(ctx context.Context, companyID string) (CompanyOverview, error)
		PlatoonDetail(ctx context.Context, platoonID string) (PlatoonDetail, error)
		InstanceDetail(ctx context.Context, instanceID string) (InstanceDetail, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		orgRepo org.Repository
		nowFunc func() time.Time
	}
)

var _ ServiceInterface = (*service)(nil)

// NewService wires the training service. db may be nil when the
// repositories are in-memory (tests); mutations then skip transactions.
func NewService(db core.DB, repo Repository, orgRepo org.Repository) *service {
	return &service{
		db:      db,
		repo:    repo,
		orgRepo: orgRepo,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (svc *service) atomic(ctx context.Context, fn func(exec ...core.DBExecutor) error) error {
	if svc.db == nil {
		return fn()
	}
	return core.AtomicContext(ctx, svc.db, func(tx core.DBTransactor) error {
		return fn(tx)
	})
}

func (svc *service) CreateTraining(ctx context.Context, nt NewTraining) (Training, error) {
	now := svc.nowFunc()
	tr := Training{
		Name:      nt.Name,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nt.Description != "" {
		tr.Description.SetValid(nt.Description)
	}
	if nt.MaxPoints != nil {
		tr.MaxPoints.SetValid(*nt.MaxPoints)
	}
	if nt.Enabled != nil {
		tr.Enabled = *nt.Enabled
	}
	return svc.repo.CreateTraining(ctx, tr)
}

func (svc *service) QueryTrainings(ctx context.Context) ([]Training, error) {
	return svc.repo.QueryTrainings(ctx)
}

// CreateInstance creates the instance and bulk-creates one incomplete
// track per person, all in one transaction. It returns the number of
// tracks created.
func (svc *service) CreateInstance(ctx context.Context, ni NewInstance) (Instance, int, error) {
	tr, err := svc.repo.GetTrainingByID(ctx, ni.TrainingID)
	if err != nil {
		if err == ErrTrainingNotFound {
			return Instance{}, 0, core.NewValidationError(err, core.FieldError{Field: "training_id", Error: err.Error()})
		}
		return Instance{}, 0, err
	}
	if !tr.Enabled {
		return Instance{}, 0, core.NewValidationError(nil, core.FieldError{Field: "training_id", Error: errTrainingDisabled})
	}

	persons, err := svc.orgRepo.QueryPersonsByID(ctx, ni.PersonIDs)
	if err != nil {
		return Instance{}, 0, pkgerrors.Wrap(err, "querying assigned persons")
	}
	if len(persons) != len(dedupe(ni.PersonIDs)) {
		return Instance{}, 0, core.NewValidationError(nil, core.FieldError{Field: "person_ids", Error: errUnknownPersons})
	}

	now := svc.nowFunc()
	name := ni.Name
	if name == "" {
		name = tr.Name
	}
	inst := Instance{
		TrainingID: tr.ID,
		Name:       name,
		DueDate:    ni.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tracks := make([]Track, 0, len(persons))
	for _, p := range persons {
		tracks = append(tracks, Track{
			PersonID:  p.ID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err = svc.atomic(ctx, func(exec ...core.DBExecutor) error {
		inst, err = svc.repo.CreateInstance(ctx, inst, tracks, exec...)
		return err
	})
	if err != nil {
		return Instance{}, 0, err
	}
	return inst, len(tracks), nil
}

// SetTrackCompletion sets a track to the given absolute state. The
// read-validate-write runs in one transaction so concurrent calls cannot
// interleave a stale flip.
func (svc *service) SetTrackCompletion(ctx context.Context, trackID string, tc TrackCompletion) (Track, error) {
	var track Track
	err := svc.atomic(ctx, func(exec ...core.DBExecutor) error {
		var err error
		track, err = svc.repo.GetTrackByID(ctx, trackID, exec...)
		if err != nil {
			return err
		}

		if !*tc.Completed {
			// uncompleting always discards the score
			track.CompletedAt.Valid = false
			track.Points.Valid = false
		} else {
			inst, err := svc.repo.GetInstanceByID(ctx, track.TrainingInstanceID, exec...)
			if err != nil {
				return err
			}
			tr, err := svc.repo.GetTrainingByID(ctx, inst.TrainingID, exec...)
			if err != nil {
				return err
			}

			if tr.RequiresPoints() {
				if tc.Points == nil {
					return core.NewValidationError(nil, core.FieldError{Field: "points", Error: errScoreRequired})
				}
				if *tc.Points < 0 || *tc.Points > tr.MaxPoints.Int {
					return core.NewValidationError(nil, core.FieldError{Field: "points", Error: errScoreOutOfRange})
				}
				track.Points.SetValid(*tc.Points)
			} else {
				track.Points.Valid = false
			}
			if !track.IsCompleted() {
				track.CompletedAt.SetValid(svc.nowFunc())
			}
		}

		track.UpdatedAt = svc.nowFunc()
		track, err = svc.repo.UpdateTrackCompletion(ctx, track, exec...)
		return err
	})
	if err != nil {
		return Track{}, err
	}
	return track, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// sortInstanceStats orders instance aggregates for display: earliest due
// date first, name breaking ties.
func sortInstanceStats(instStats []stats.InstanceStat) {
	sort.SliceStable(instStats, func(i, j int) bool {
		if instStats[i].DueDate.Equal(instStats[j].DueDate) {
			return instStats[i].Name < instStats[j].Name
		}
		return instStats[i].DueDate.Before(instStats[j].DueDate)
	})
}
