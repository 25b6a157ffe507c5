package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
)

type orgRepository struct {
	db *DB
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *DB) *orgRepository {
	return &orgRepository{db: db}
}

func (repo *orgRepository) CreateCompany(ctx context.Context, company org.Company, exec ...core.DBExecutor) (org.Company, error) {
	repo.db.company.Lock()
	defer repo.db.company.Unlock()

	company.ID = uuid.New().String()
	repo.db.company.table[company.ID] = &company
	return company, nil
}

func (repo *orgRepository) QueryCompanies(ctx context.Context, exec ...core.DBExecutor) ([]org.Company, error) {
	repo.db.company.RLock()
	defer repo.db.company.RUnlock()

	companies := make([]org.Company, 0, len(repo.db.company.table))
	for _, c := range repo.db.company.table {
		companies = append(companies, *c)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })
	return companies, nil
}

func (repo *orgRepository) GetCompanyByID(ctx context.Context, id string, exec ...core.DBExecutor) (org.Company, error) {
	repo.db.company.RLock()
	defer repo.db.company.RUnlock()

	if company, ok := repo.db.company.table[id]; ok {
		return *company, nil
	}
	return org.Company{}, org.ErrCompanyNotFound
}

func (repo *orgRepository) CreatePlatoon(ctx context.Context, platoon org.Platoon, exec ...core.DBExecutor) (org.Platoon, error) {
	repo.db.platoon.Lock()
	defer repo.db.platoon.Unlock()

	platoon.ID = uuid.New().String()
	repo.db.platoon.table[platoon.ID] = &platoon
	return platoon, nil
}

func (repo *orgRepository) GetPlatoonByID(ctx context.Context, id string, exec ...core.DBExecutor) (org.Platoon, error) {
	repo.db.platoon.RLock()
	defer repo.db.platoon.RUnlock()

	platoon, ok := repo.db.platoon.table[id]
	if !ok {
		return org.Platoon{}, org.ErrPlatoonNotFound
	}
	p := *platoon
	p.MemberCount = repo.countMembers(id)
	return p, nil
}

func (repo *orgRepository) QueryPlatoonsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]org.Platoon, error) {
	repo.db.platoon.RLock()
	defer repo.db.platoon.RUnlock()

	platoons := make([]org.Platoon, 0)
	for _, pl := range repo.db.platoon.table {
		if pl.CompanyID == companyID {
			p := *pl
			p.MemberCount = repo.countMembers(p.ID)
			platoons = append(platoons, p)
		}
	}
	sort.Slice(platoons, func(i, j int) bool { return platoons[i].Name < platoons[j].Name })
	return platoons, nil
}

func (repo *orgRepository) CreatePerson(ctx context.Context, person org.Person, exec ...core.DBExecutor) (org.Person, error) {
	repo.db.person.Lock()
	defer repo.db.person.Unlock()

	person.ID = uuid.New().String()
	repo.db.person.table[person.ID] = &person
	return person, nil
}

func (repo *orgRepository) QueryPersonsByPlatoon(ctx context.Context, platoonID string, exec ...core.DBExecutor) ([]org.Person, error) {
	repo.db.person.RLock()
	defer repo.db.person.RUnlock()

	persons := make([]org.Person, 0)
	for _, p := range repo.db.person.table {
		if p.PlatoonID == platoonID {
			persons = append(persons, *p)
		}
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].Name < persons[j].Name })
	return persons, nil
}

func (repo *orgRepository) QueryPersonsByCompany(ctx context.Context, companyID string, exec ...core.DBExecutor) ([]org.Person, error) {
	platoons, err := repo.QueryPlatoonsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	platoonIDs := make(map[string]struct{}, len(platoons))
	for _, pl := range platoons {
		platoonIDs[pl.ID] = struct{}{}
	}

	repo.db.person.RLock()
	defer repo.db.person.RUnlock()

	persons := make([]org.Person, 0)
	for _, p := range repo.db.person.table {
		if _, ok := platoonIDs[p.PlatoonID]; ok {
			persons = append(persons, *p)
		}
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].Name < persons[j].Name })
	return persons, nil
}

func (repo *orgRepository) QueryPersonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]org.Person, error) {
	repo.db.person.RLock()
	defer repo.db.person.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	persons := make([]org.Person, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := repo.db.person.table[id]; ok {
			persons = append(persons, *p)
		}
	}
	return persons, nil
}

// countMembers assumes the person table may be read without holding its
// lock exclusively; callers already serialize through the platoon lock.
func (repo *orgRepository) countMembers(platoonID string) int {
	repo.db.person.RLock()
	defer repo.db.person.RUnlock()

	var n int
	for _, p := range repo.db.person.table {
		if p.PlatoonID == platoonID {
			n++
		}
	}
	return n
}
