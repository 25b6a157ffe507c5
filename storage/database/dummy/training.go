package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/stats"
	"github.com/miltrack/miltrack/core/training"
)

type trainingRepository struct {
	db *DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *DB) *trainingRepository {
	return &trainingRepository{db: db}
}

func (repo *trainingRepository) CreateTraining(ctx context.Context, tr training.Training, exec ...core.DBExecutor) (training.Training, error) {
	repo.db.training.Lock()
	defer repo.db.training.Unlock()

	tr.ID = uuid.New().String()
	repo.db.training.table[tr.ID] = &tr
	return tr, nil
}

func (repo *trainingRepository) QueryTrainings(ctx context.Context, exec ...core.DBExecutor) ([]training.Training, error) {
	repo.db.training.RLock()
	defer repo.db.training.RUnlock()

	trainings := make([]training.Training, 0, len(repo.db.training.table))
	for _, tr := range repo.db.training.table {
		trainings = append(trainings, *tr)
	}
	sort.Slice(trainings, func(i, j int) bool { return trainings[i].Name < trainings[j].Name })
	return trainings, nil
}

func (repo *trainingRepository) GetTrainingByID(ctx context.Context, id string, exec ...core.DBExecutor) (training.Training, error) {
	repo.db.training.RLock()
	defer repo.db.training.RUnlock()

	if tr, ok := repo.db.training.table[id]; ok {
		return *tr, nil
	}
	return training.Training{}, training.ErrTrainingNotFound
}

func (repo *trainingRepository) CreateInstance(ctx context.Context, inst training.Instance, tracks []training.Track, exec ...core.DBExecutor) (training.Instance, error) {
	repo.db.instance.Lock()
	defer repo.db.instance.Unlock()
	repo.db.track.Lock()
	defer repo.db.track.Unlock()

	inst.ID = uuid.New().String()
	repo.db.instance.table[inst.ID] = &inst
	for _, track := range tracks {
		track.ID = uuid.New().String()
		track.TrainingInstanceID = inst.ID
		trackCopy := track
		repo.db.track.table[track.ID] = &trackCopy
	}
	return inst, nil
}

func (repo *trainingRepository) GetInstanceByID(ctx context.Context, id string, exec ...core.DBExecutor) (training.Instance, error) {
	repo.db.instance.RLock()
	defer repo.db.instance.RUnlock()

	if inst, ok := repo.db.instance.table[id]; ok {
		return *inst, nil
	}
	return training.Instance{}, training.ErrInstanceNotFound
}

func (repo *trainingRepository) GetTrackByID(ctx context.Context, id string, exec ...core.DBExecutor) (training.Track, error) {
	repo.db.track.RLock()
	defer repo.db.track.RUnlock()

	if track, ok := repo.db.track.table[id]; ok {
		return *track, nil
	}
	return training.Track{}, training.ErrTrackNotFound
}

func (repo *trainingRepository) UpdateTrackCompletion(ctx context.Context, track training.Track, exec ...core.DBExecutor) (training.Track, error) {
	repo.db.track.Lock()
	defer repo.db.track.Unlock()

	stored, ok := repo.db.track.table[track.ID]
	if !ok {
		return training.Track{}, training.ErrTrackNotFound
	}
	stored.CompletedAt = track.CompletedAt
	stored.Points = track.Points
	stored.UpdatedAt = track.UpdatedAt
	return *stored, nil
}

func (repo *trainingRepository) QueryTrackRowsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]stats.TrackRow, error) {
	return repo.queryTrackRows(func(row stats.TrackRow) bool {
		repo.db.platoon.RLock()
		defer repo.db.platoon.RUnlock()
		pl, ok := repo.db.platoon.table[row.PlatoonID]
		return ok && pl.CompanyID == companyID
	}), nil
}

func (repo *trainingRepository) QueryTrackRowsByPlatoon(ctx context.Context, platoonID string, exec ...core.DBExecutor) ([]stats.TrackRow, error) {
	return repo.queryTrackRows(func(row stats.TrackRow) bool {
		return row.PlatoonID == platoonID
	}), nil
}

func (repo *trainingRepository) QueryTrackRowsByInstance(ctx context.Context, instanceID string, exec ...core.DBExecutor) ([]stats.TrackRow, error) {
	return repo.queryTrackRows(func(row stats.TrackRow) bool {
		return row.TrainingInstanceID == instanceID
	}), nil
}

// queryTrackRows joins tracks with persons, instances and trainings the
// way the SQL projection does, then filters.
func (repo *trainingRepository) queryTrackRows(keep func(stats.TrackRow) bool) []stats.TrackRow {
	repo.db.track.RLock()
	defer repo.db.track.RUnlock()

	rows := make([]stats.TrackRow, 0, len(repo.db.track.table))
	for _, track := range repo.db.track.table {
		row := stats.TrackRow{
			ID:                 track.ID,
			PersonID:           track.PersonID,
			TrainingInstanceID: track.TrainingInstanceID,
			CompletedAt:        track.CompletedAt,
			Points:             track.Points,
		}

		repo.db.person.RLock()
		if p, ok := repo.db.person.table[track.PersonID]; ok {
			row.PersonName = p.Name
			row.PlatoonID = p.PlatoonID
		}
		repo.db.person.RUnlock()

		repo.db.instance.RLock()
		inst, ok := repo.db.instance.table[track.TrainingInstanceID]
		repo.db.instance.RUnlock()
		if ok {
			row.InstanceName = inst.Name
			row.TrainingID = inst.TrainingID
			row.DueDate = inst.DueDate

			repo.db.training.RLock()
			if tr, ok := repo.db.training.table[inst.TrainingID]; ok {
				row.TrainingName = tr.Name
				row.MaxPoints = tr.MaxPoints
				if row.InstanceName == "" {
					row.InstanceName = tr.Name
				}
			}
			repo.db.training.RUnlock()
		}

		if keep(row) {
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DueDate.Equal(rows[j].DueDate) {
			return rows[i].PersonName < rows[j].PersonName
		}
		return rows[i].DueDate.Before(rows[j].DueDate)
	})
	return rows
}
