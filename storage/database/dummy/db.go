package dummydb

import (
	"sync"

	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/training"
)

type (
	DB struct {
		company  *companyTable
		platoon  *platoonTable
		person   *personTable
		training *trainingTable
		instance *instanceTable
		track    *trackTable
	}

	companyTable struct {
		sync.RWMutex
		table map[string]*org.Company
	}

	platoonTable struct {
		sync.RWMutex
		table map[string]*org.Platoon
	}

	personTable struct {
		sync.RWMutex
		table map[string]*org.Person
	}

	trainingTable struct {
		sync.RWMutex
		table map[string]*training.Training
	}

	instanceTable struct {
		sync.RWMutex
		table map[string]*training.Instance
	}

	trackTable struct {
		sync.RWMutex
		table map[string]*training.Track
	}
)

func Open() (*DB, error) {
	db := &DB{
		company:  &companyTable{table: make(map[string]*org.Company)},
		platoon:  &platoonTable{table: make(map[string]*org.Platoon)},
		person:   &personTable{table: make(map[string]*org.Person)},
		training: &trainingTable{table: make(map[string]*training.Training)},
		instance: &instanceTable{table: make(map[string]*training.Instance)},
		track:    &trackTable{table: make(map[string]*training.Track)},
	}
	return db, nil
}
