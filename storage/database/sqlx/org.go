package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
)

type orgRepository struct {
	db *sqlx.DB
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *sql.DB) *orgRepository {
	return &orgRepository{db: sqlx.NewDb(db, "postgres")}
}

// getExec prefers a caller-supplied executor (a transaction) over the pool.
func getExec(db *sqlx.DB, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return db.DB
}

// trapNoRowsErr maps psql "no rows" err to the given domain error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo orgRepository) CreateCompany(ctx context.Context, company org.Company, exec ...core.DBExecutor) (org.Company, error) {
	company.ID = uuid.New().String()
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`INSERT INTO company (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		company.ID, company.Name, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		return org.Company{}, errors.Wrap(err, "inserting company")
	}
	return company, nil
}

func (repo orgRepository) QueryCompanies(ctx context.Context, exec ...core.DBExecutor) ([]org.Company, error) {
	companies := make([]org.Company, 0)
	err := sqlx.SelectContext(ctx, repo.db, &companies,
		`SELECT id, name, created_at, updated_at FROM company ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying companies")
	}
	return companies, nil
}

func (repo orgRepository) GetCompanyByID(ctx context.Context, id string, exec ...core.DBExecutor) (org.Company, error) {
	var company org.Company
	err := getExec(repo.db, exec).QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM company WHERE id = $1`, id,
	).Scan(&company.ID, &company.Name, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return org.Company{}, trapNoRowsErr(err, org.ErrCompanyNotFound, "getting company")
	}
	return company, nil
}

func (repo orgRepository) CreatePlatoon(ctx context.Context, platoon org.Platoon, exec ...core.DBExecutor) (org.Platoon, error) {
	platoon.ID = uuid.New().String()
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`INSERT INTO platoon (id, name, company_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		platoon.ID, platoon.Name, platoon.CompanyID, platoon.CreatedAt, platoon.UpdatedAt,
	)
	if err != nil {
		return org.Platoon{}, errors.Wrap(err, "inserting platoon")
	}
	return platoon, nil
}

func (repo orgRepository) GetPlatoonByID(ctx context.Context, id string, exec ...core.DBExecutor) (org.Platoon, error) {
	var platoon org.Platoon
	err := getExec(repo.db, exec).QueryRowContext(ctx,
		`SELECT pl.id, pl.name, pl.company_id, pl.created_at, pl.updated_at,
		        (SELECT COUNT(*) FROM person p WHERE p.platoon_id = pl.id) AS member_count
		 FROM platoon pl WHERE pl.id = $1`, id,
	).Scan(&platoon.ID, &platoon.Name, &platoon.CompanyID, &platoon.CreatedAt, &platoon.UpdatedAt, &platoon.MemberCount)
	if err != nil {
		return org.Platoon{}, trapNoRowsErr(err, org.ErrPlatoonNotFound, "getting platoon")
	}
	return platoon, nil
}

func (repo orgRepository) QueryPlatoonsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]org.Platoon, error) {
	platoons := make([]org.Platoon, 0)
	err := sqlx.SelectContext(ctx, repo.db, &platoons,
		`SELECT pl.id, pl.name, pl.company_id, pl.created_at, pl.updated_at,
		        COUNT(p.id) AS member_count
		 FROM platoon pl
		 LEFT JOIN person p ON p.platoon_id = pl.id
		 WHERE pl.company_id = $1
		 GROUP BY pl.id
		 ORDER BY pl.name ASC`, companyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying platoons")
	}
	return platoons, nil
}

func (repo orgRepository) CreatePerson(ctx context.Context, person org.Person, exec ...core.DBExecutor) (org.Person, error) {
	person.ID = uuid.New().String()
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`INSERT INTO person (id, name, platoon_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		person.ID, person.Name, person.PlatoonID, person.CreatedAt, person.UpdatedAt,
	)
	if err != nil {
		return org.Person{}, errors.Wrap(err, "inserting person")
	}
	return person, nil
}

func (repo orgRepository) QueryPersonsByPlatoon(ctx context.Context, platoonID string, exec ...core.DBExecutor) ([]org.Person, error) {
	persons := make([]org.Person, 0)
	err := sqlx.SelectContext(ctx, repo.db, &persons,
		`SELECT id, name, platoon_id, created_at, updated_at
		 FROM person WHERE platoon_id = $1 ORDER BY name ASC`, platoonID)
	if err != nil {
		return nil, errors.Wrap(err, "querying persons by platoon")
	}
	return persons, nil
}

func (repo orgRepository) QueryPersonsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]org.Person, error) {
	persons := make([]org.Person, 0)
	err := sqlx.SelectContext(ctx, repo.db, &persons,
		`SELECT p.id, p.name, p.platoon_id, p.created_at, p.updated_at
		 FROM person p
		 JOIN platoon pl ON pl.id = p.platoon_id
		 WHERE pl.company_id = $1
		 ORDER BY p.name ASC`, companyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying persons by company")
	}
	return persons, nil
}

func (repo orgRepository) QueryPersonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]org.Person, error) {
	if len(ids) == 0 {
		return []org.Person{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, name, platoon_id, created_at, updated_at FROM person WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building persons-by-id query")
	}

	persons := make([]org.Person, 0, len(ids))
	err = sqlx.SelectContext(ctx, repo.db, &persons, repo.db.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying persons by id")
	}
	return persons, nil
}
