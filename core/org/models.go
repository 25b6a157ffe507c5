package org

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/miltrack/miltrack/core"
)

// Company is the top-level organizational unit.
type Company struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Platoon is a sub-unit of a Company containing Persons.
type Platoon struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CompanyID string    `json:"company_id" db:"company_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC

	// MemberCount is filled by roster queries, not stored.
	MemberCount int `json:"member_count" db:"member_count"`
}

// Person is an individual tracked for training completion.
type Person struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	PlatoonID string    `json:"platoon_id" db:"platoon_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewCompany contains information needed to create a new Company.
type NewCompany struct {
	Name string `json:"name" validate:"required"`
}

func (nc *NewCompany) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// NewPlatoon contains information needed to create a new Platoon.
// The parent Company must exist; the service checks that.
type NewPlatoon struct {
	Name      string `json:"name" validate:"required"`
	CompanyID string `json:"company_id" validate:"required"`
}

func (np *NewPlatoon) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.CompanyID = core.CleanString(np.CompanyID)
	return validate.Struct(np)
}

// NewPerson contains information needed to create a new Person.
type NewPerson struct {
	Name      string `json:"name" validate:"required"`
	PlatoonID string `json:"platoon_id" validate:"required"`
}

func (np *NewPerson) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.PlatoonID = core.CleanString(np.PlatoonID)
	return validate.Struct(np)
}
