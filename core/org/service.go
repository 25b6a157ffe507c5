package org

import (
	"context"
	"errors"
	"time"

	"github.com/miltrack/miltrack/core"
)

var (
	// errors
	ErrCompanyNotFound = errors.New("company not found")
	ErrPlatoonNotFound = errors.New("platoon not found")
	ErrPersonNotFound  = errors.New("person not found")
)

type (
	Repository interface {
		CreateCompany(ctx context.Context, company Company, exec ...core.DBExecutor) (Company, error)
		QueryCompanies(ctx context.Context, exec ...core.DBExecutor) ([]Company, error)
		GetCompanyByID(ctx context.Context, id string, exec ...core.DBExecutor) (Company, error)

		CreatePlatoon(ctx context.Context, platoon Platoon, exec ...core.DBExecutor) (Platoon, error)
		GetPlatoonByID(ctx context.Context, id string, exec ...core.DBExecutor) (Platoon, error)
		// QueryPlatoonsByCompany returns the company's platoons with MemberCount filled.
		QueryPlatoonsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]Platoon, error)

		CreatePerson(ctx context.Context, person Person, exec ...core.DBExecutor) (Person, error)
		QueryPersonsByPlatoon(ctx context.Context, platoonID string, exec ...core.DBExecutor) ([]Person, error)
		QueryPersonsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]Person, error)
		QueryPersonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]Person, error)
	}

	ServiceInterface interface {
		CreateCompany(ctx context.Context, nc NewCompany) (Company, error)
		QueryCompanies(ctx context.Context) ([]Company, error)
		GetCompany(ctx context.Context, id string) (Company, error)
		CreatePlatoon(ctx context.Context, np NewPlatoon) (Platoon, error)
		GetPlatoon(ctx context.Context, id string) (Platoon, error)
		QueryPlatoons(ctx context.Context, companyID string) ([]Platoon, error)
		CreatePerson(ctx context.Context, np NewPerson) (Person, error)
		QueryPersons(ctx context.Context, platoonID string) ([]Person, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) CreateCompany(ctx context.Context, nc NewCompany) (Company, error) {
	now := time.Now().UTC()
	company := Company{
		Name:      nc.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateCompany(ctx, company)
}

func (svc *service) QueryCompanies(ctx context.Context) ([]Company, error) {
	return svc.repo.QueryCompanies(ctx)
}

func (svc *service) GetCompany(ctx context.Context, id string) (Company, error) {
	return svc.repo.GetCompanyByID(ctx, id)
}

func (svc *service) CreatePlatoon(ctx context.Context, np NewPlatoon) (Platoon, error) {
	if _, err := svc.repo.GetCompanyByID(ctx, np.CompanyID); err != nil {
		if err == ErrCompanyNotFound {
			return Platoon{}, core.NewValidationError(err, core.FieldError{Field: "company_id", Error: err.Error()})
		}
		return Platoon{}, err
	}

	now := time.Now().UTC()
	platoon := Platoon{
		Name:      np.Name,
		CompanyID: np.CompanyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreatePlatoon(ctx, platoon)
}

func (svc *service) GetPlatoon(ctx context.Context, id string) (Platoon, error) {
	return svc.repo.GetPlatoonByID(ctx, id)
}

func (svc *service) QueryPlatoons(ctx context.Context, companyID string) ([]Platoon, error) {
	return svc.repo.QueryPlatoonsByCompany(ctx, companyID)
}

func (svc *service) CreatePerson(ctx context.Context, np NewPerson) (Person, error) {
	if _, err := svc.repo.GetPlatoonByID(ctx, np.PlatoonID); err != nil {
		if err == ErrPlatoonNotFound {
			return Person{}, core.NewValidationError(err, core.FieldError{Field: "platoon_id", Error: err.Error()})
		}
		return Person{}, err
	}

	now := time.Now().UTC()
	person := Person{
		Name:      np.Name,
		PlatoonID: np.PlatoonID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreatePerson(ctx, person)
}

func (svc *service) QueryPersons(ctx context.Context, platoonID string) ([]Person, error) {
	return svc.repo.QueryPersonsByPlatoon(ctx, platoonID)
}
