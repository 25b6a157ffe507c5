package main

import (
	"log"
	"os"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/training"
	"github.com/miltrack/miltrack/storage/database"
	sqlxrepos "github.com/miltrack/miltrack/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// set up services
	orgRepo := sqlxrepos.NewOrgRepository(db)

	// start CLI
	cli := commandLine{
		db:          db,
		orgSvc:      org.NewService(orgRepo),
		trainingSvc: training.NewService(db, sqlxrepos.NewTrainingRepository(db), orgRepo),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
