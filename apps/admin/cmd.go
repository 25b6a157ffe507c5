package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/training"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db          *sql.DB
	orgSvc      org.ServiceInterface
	trainingSvc training.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...] - run DB migrations; see goose for available commands")
	fmt.Println("  seed                      - load demo companies, platoons, persons and trainings")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
