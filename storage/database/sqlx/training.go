package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/stats"
	"github.com/miltrack/miltrack/core/training"
)

// trackRowColumns is the denormalized projection consumed by the
// aggregation engine; instance names fall back to the training name.
const trackRowColumns = `
	tt.id, tt.person_id, p.name AS person_name, p.platoon_id,
	tt.training_instance_id, COALESCE(NULLIF(ti.name, ''), t.name) AS instance_name,
	ti.training_id, t.name AS training_name, t.max_points, ti.due_date,
	tt.completed_at, tt.points`

const trackRowJoins = `
	FROM training_track tt
	JOIN person p ON p.id = tt.person_id
	JOIN platoon pl ON pl.id = p.platoon_id
	JOIN training_instance ti ON ti.id = tt.training_instance_id
	JOIN training t ON t.id = ti.training_id`

type trainingRepository struct {
	db *sqlx.DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *sql.DB) *trainingRepository {
	return &trainingRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo trainingRepository) CreateTraining(ctx context.Context, tr training.Training, exec ...core.DBExecutor) (training.Training, error) {
	tr.ID = uuid.New().String()
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`INSERT INTO training (id, name, description, max_points, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tr.ID, tr.Name, tr.Description, tr.MaxPoints, tr.Enabled, tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		return training.Training{}, errors.Wrap(err, "inserting training")
	}
	return tr, nil
}

func (repo trainingRepository) QueryTrainings(ctx context.Context, exec ...core.DBExecutor) ([]training.Training, error) {
	trainings := make([]training.Training, 0)
	err := sqlx.SelectContext(ctx, repo.db, &trainings,
		`SELECT id, name, description, max_points, enabled, created_at, updated_at
		 FROM training ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying trainings")
	}
	return trainings, nil
}

func (repo trainingRepository) GetTrainingByID(ctx context.Context, id string, exec ...core.DBExecutor) (training.Training, error) {
	var tr training.Training
	err := getExec(repo.db, exec).QueryRowContext(ctx,
		`SELECT id, name, description, max_points, enabled, created_at, updated_at
		 FROM training WHERE id = $1`, id,
	).Scan(&tr.ID, &tr.Name, &tr.Description, &tr.MaxPoints, &tr.Enabled, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return training.Training{}, trapNoRowsErr(err, training.ErrTrainingNotFound, "getting training")
	}
	return tr, nil
}

func (repo trainingRepository) CreateInstance(ctx context.Context, inst training.Instance, tracks []training.Track, exec ...core.DBExecutor) (training.Instance, error) {
	ex := getExec(repo.db, exec)

	inst.ID = uuid.New().String()
	_, err := ex.ExecContext(ctx,
		`INSERT INTO training_instance (id, training_id, name, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inst.ID, inst.TrainingID, inst.Name, inst.DueDate, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return training.Instance{}, errors.Wrap(err, "inserting training instance")
	}

	for _, track := range tracks {
		_, err = ex.ExecContext(ctx,
			`INSERT INTO training_track (id, person_id, training_instance_id, completed_at, points, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), track.PersonID, inst.ID, track.CompletedAt, track.Points, track.CreatedAt, track.UpdatedAt,
		)
		if err != nil {
			return training.Instance{}, errors.Wrap(err, "inserting training track")
		}
	}
	return inst, nil
}

func (repo trainingRepository) GetInstanceByID(ctx context.Context, id string, exec ...core.DBExecutor) (training.Instance, error) {
	var inst training.Instance
	err := getExec(repo.db, exec).QueryRowContext(ctx,
		`SELECT id, training_id, name, due_date, created_at, updated_at
		 FROM training_instance WHERE id = $1`, id,
	).Scan(&inst.ID, &inst.TrainingID, &inst.Name, &inst.DueDate, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return training.Instance{}, trapNoRowsErr(err, training.ErrInstanceNotFound, "getting training instance")
	}
	return inst, nil
}

func (repo trainingRepository) GetTrackByID(ctx context.Context, id string, exec ...core.DBExecutor) (training.Track, error) {
	var track training.Track
	err := getExec(repo.db, exec).QueryRowContext(ctx,
		`SELECT id, person_id, training_instance_id, completed_at, points, created_at, updated_at
		 FROM training_track WHERE id = $1 FOR UPDATE`, id,
	).Scan(&track.ID, &track.PersonID, &track.TrainingInstanceID, &track.CompletedAt, &track.Points, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return training.Track{}, trapNoRowsErr(err, training.ErrTrackNotFound, "getting training track")
	}
	return track, nil
}

func (repo trainingRepository) UpdateTrackCompletion(ctx context.Context, track training.Track, exec ...core.DBExecutor) (training.Track, error) {
	res, err := getExec(repo.db, exec).ExecContext(ctx,
		`UPDATE training_track SET completed_at = $1, points = $2, updated_at = $3 WHERE id = $4`,
		track.CompletedAt, track.Points, track.UpdatedAt, track.ID,
	)
	if err != nil {
		return training.Track{}, errors.Wrap(err, "updating training track")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return training.Track{}, training.ErrTrackNotFound
	}
	return track, nil
}

func (repo trainingRepository) QueryTrackRowsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]stats.TrackRow, error) {
	rows := make([]stats.TrackRow, 0)
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		`SELECT`+trackRowColumns+trackRowJoins+`
		 WHERE pl.company_id = $1
		 ORDER BY ti.due_date ASC, p.name ASC`, companyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying track rows by company")
	}
	return rows, nil
}

func (repo trainingRepository) QueryTrackRowsByPlatoon(ctx context.Context, platoonID string, exec ...core.DBExecutor) ([]stats.TrackRow, error) {
	rows := make([]stats.TrackRow, 0)
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		`SELECT`+trackRowColumns+trackRowJoins+`
		 WHERE p.platoon_id = $1
		 ORDER BY ti.due_date ASC, p.name ASC`, platoonID)
	if err != nil {
		return nil, errors.Wrap(err, "querying track rows by platoon")
	}
	return rows, nil
}

func (repo trainingRepository) QueryTrackRowsByInstance(ctx context.Context, instanceID string, exec ...core.DBExecutor) ([]stats.TrackRow, error) {
	rows := make([]stats.TrackRow, 0)
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		`SELECT`+trackRowColumns+trackRowJoins+`
		 WHERE tt.training_instance_id = $1
		 ORDER BY p.name ASC`, instanceID)
	if err != nil {
		return nil, errors.Wrap(err, "querying track rows by instance")
	}
	return rows, nil
}
