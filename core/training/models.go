package training

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/miltrack/miltrack/core"
)

// Training is a reusable course/exercise template. A non-null MaxPoints
// means completion requires a score in [0, MaxPoints]; null means the
// training is pass/fail.
type Training struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description null.String `json:"description" db:"description"`
	MaxPoints   null.Int    `json:"max_points" db:"max_points"`
	Enabled     bool        `json:"enabled" db:"enabled"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

func (t Training) RequiresPoints() bool { return t.MaxPoints.Valid }

// Instance is one scheduled occurrence of a Training, assigned to a set
// of persons with a due date. An empty Name falls back to the Training's
// name in all read paths.
type Instance struct {
	ID         string    `json:"id" db:"id"`
	TrainingID string    `json:"training_id" db:"training_id"`
	Name       string    `json:"name" db:"name"`
	DueDate    time.Time `json:"due_date" db:"due_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Track links one Person to one Instance and records its completion.
// Points is non-null only when CompletedAt is non-null and the owning
// Training carries MaxPoints.
type Track struct {
	ID                 string    `json:"id" db:"id"`
	PersonID           string    `json:"person_id" db:"person_id"`
	TrainingInstanceID string    `json:"training_instance_id" db:"training_instance_id"`
	CompletedAt        null.Time `json:"completed_at" db:"completed_at"`
	Points             null.Int  `json:"points" db:"points"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (t Track) IsCompleted() bool { return t.CompletedAt.Valid }

// NewTraining contains information needed to create a new Training.
type NewTraining struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	MaxPoints   *int   `json:"max_points" validate:"omitempty,gte=0"`
	Enabled     *bool  `json:"enabled"` // defaults to true
}

func (nt *NewTraining) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

// NewInstance contains information needed to create a new Instance and
// its tracks. One Track is bulk-created per person, incomplete.
type NewInstance struct {
	TrainingID string    `json:"training_id" validate:"required"`
	Name       string    `json:"name"` // defaults to the Training's name
	DueDate    time.Time `json:"due_date" validate:"required"`
	PersonIDs  []string  `json:"person_ids" validate:"required,min=1"`
}

func (ni *NewInstance) Validate(validate *validator.Validate) error {
	ni.TrainingID = core.CleanString(ni.TrainingID)
	ni.Name = core.CleanString(ni.Name)
	return validate.Struct(ni)
}

// TrackCompletion is the absolute target state for a track. Passing the
// target instead of a flip keeps the operation idempotent and closes the
// lost-update window between two concurrent togglers.
type TrackCompletion struct {
	Completed *bool `json:"completed" validate:"required"`
	Points    *int  `json:"points"`
}

func (tc *TrackCompletion) Validate(validate *validator.Validate) error {
	return validate.Struct(tc)
}
