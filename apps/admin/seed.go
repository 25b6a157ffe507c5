package main

import (
	"context"
	"time"

	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/training"
)

type seedTraining struct {
	name        string
	description string
	maxPoints   *int
	completions int // tracks marked complete per instance
}

func intPtr(n int) *int { return &n }

var (
	seedCompanyName = "Jassbach KP 2"

	seedPlatoons = map[string][]string{
		"Zug 1": {
			"Brunner", "Schneider", "Meier", "Keller", "Baumann",
			"Moser", "Gerber", "Frei", "Wyss", "Hofer",
		},
		"Zug 2": {
			"Steiner", "Zimmermann", "Graf", "Roth", "Kunz",
			"Lehmann", "Zbinden", "Marti", "Lüthi", "Aebischer",
		},
	}

	seedTrainings = []seedTraining{
		{name: "300 Meter", description: "Obligatorisches Schiessen 300m", maxPoints: intPtr(90), completions: 12},
		{name: "FTA 5 inkl. Punkte", maxPoints: intPtr(120), completions: 8},
		{name: "Marsch 20km", description: "Leistungsmarsch mit Gepäck", completions: 15},
		{name: "Sanität Repetition", completions: 6},
		{name: "ABC Schutz", description: "Schutzmaske und Dekontamination", completions: 10},
	}
)

// seed loads a demo company with two platoons, their rosters and a set
// of training instances, then completes a share of the tracks so the
// dashboards have something to show.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	company, err := cli.orgSvc.CreateCompany(ctx, org.NewCompany{Name: seedCompanyName})
	if err != nil {
		return err
	}
	logger.Printf("created company %q", company.Name)

	personIDs := make([]string, 0, 20)
	for platoonName, names := range seedPlatoons {
		platoon, err := cli.orgSvc.CreatePlatoon(ctx, org.NewPlatoon{Name: platoonName, CompanyID: company.ID})
		if err != nil {
			return err
		}
		for _, name := range names {
			person, err := cli.orgSvc.CreatePerson(ctx, org.NewPerson{Name: name, PlatoonID: platoon.ID})
			if err != nil {
				return err
			}
			personIDs = append(personIDs, person.ID)
		}
		logger.Printf("created platoon %q with %d members", platoon.Name, len(names))
	}

	dueDate := time.Now().UTC().AddDate(0, 0, 7)
	for _, st := range seedTrainings {
		tr, err := cli.trainingSvc.CreateTraining(ctx, training.NewTraining{
			Name:        st.name,
			Description: st.description,
			MaxPoints:   st.maxPoints,
		})
		if err != nil {
			return err
		}

		inst, trackCount, err := cli.trainingSvc.CreateInstance(ctx, training.NewInstance{
			TrainingID: tr.ID,
			DueDate:    dueDate,
			PersonIDs:  personIDs,
		})
		if err != nil {
			return err
		}
		logger.Printf("created training %q with %d tracks", tr.Name, trackCount)

		if err := cli.completeTracks(ctx, inst.ID, tr, st.completions); err != nil {
			return err
		}
		dueDate = dueDate.AddDate(0, 0, 14)
	}
	return nil
}

func (cli *commandLine) completeTracks(ctx context.Context, instanceID string, tr training.Training, count int) error {
	detail, err := cli.trainingSvc.InstanceDetail(ctx, instanceID)
	if err != nil {
		return err
	}
	if count > len(detail.Incomplete) {
		count = len(detail.Incomplete)
	}

	completed := true
	for i := 0; i < count; i++ {
		tc := training.TrackCompletion{Completed: &completed}
		if tr.RequiresPoints() {
			// spread scores over the upper half of the range
			score := tr.MaxPoints.Int/2 + i*(tr.MaxPoints.Int/2)/count
			tc.Points = &score
		}
		if _, err := cli.trainingSvc.SetTrackCompletion(ctx, detail.Incomplete[i].ID, tc); err != nil {
			return err
		}
	}
	return nil
}
