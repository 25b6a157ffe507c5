package training_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/stats"
	"github.com/miltrack/miltrack/core/training"
	dummydb "github.com/miltrack/miltrack/storage/database/dummy"
)

type fixture struct {
	orgSvc  org.ServiceInterface
	svc     training.ServiceInterface
	company org.Company
	platoon org.Platoon
	persons []org.Person
}

func setup(t *testing.T, memberCount int) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	require.NoError(t, err)
	orgRepo := dummydb.NewOrgRepository(db)
	orgSvc := org.NewService(orgRepo)
	svc := training.NewService(nil, dummydb.NewTrainingRepository(db), orgRepo)

	company, err := orgSvc.CreateCompany(ctx, org.NewCompany{Name: "Jassbach KP 2"})
	require.NoError(t, err)
	platoon, err := orgSvc.CreatePlatoon(ctx, org.NewPlatoon{Name: "Zug 1", CompanyID: company.ID})
	require.NoError(t, err)

	names := []string{"Brunner", "Schneider", "Meier", "Keller", "Baumann", "Moser", "Gerber", "Frei", "Wyss", "Hofer"}
	persons := make([]org.Person, 0, memberCount)
	for i := 0; i < memberCount; i++ {
		p, err := orgSvc.CreatePerson(ctx, org.NewPerson{Name: names[i%len(names)], PlatoonID: platoon.ID})
		require.NoError(t, err)
		persons = append(persons, p)
	}

	return &fixture{orgSvc: orgSvc, svc: svc, company: company, platoon: platoon, persons: persons}
}

func (f *fixture) personIDs() []string {
	ids := make([]string, 0, len(f.persons))
	for _, p := range f.persons {
		ids = append(ids, p.ID)
	}
	return ids
}

func (f *fixture) createTraining(t *testing.T, name string, maxPoints *int) training.Training {
	t.Helper()
	tr, err := f.svc.CreateTraining(context.Background(), training.NewTraining{Name: name, MaxPoints: maxPoints})
	require.NoError(t, err)
	return tr
}

func (f *fixture) createInstance(t *testing.T, trainingID string) training.Instance {
	t.Helper()
	inst, _, err := f.svc.CreateInstance(context.Background(), training.NewInstance{
		TrainingID: trainingID,
		DueDate:    time.Now().UTC().AddDate(0, 0, 7),
		PersonIDs:  f.personIDs(),
	})
	require.NoError(t, err)
	return inst
}

// trackIDs returns the instance's track IDs keyed by person name.
func (f *fixture) trackIDs(t *testing.T, instanceID string) map[string]string {
	t.Helper()
	detail, err := f.svc.InstanceDetail(context.Background(), instanceID)
	require.NoError(t, err)

	ids := make(map[string]string)
	for _, row := range append(detail.Completed, detail.Incomplete...) {
		ids[row.PersonName] = row.ID
	}
	return ids
}

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "expected *core.ValidationError, got %T: %v", err, err)

	fields := make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		fields[f.Field] = f.Error
	}
	return fields
}

func Test_service_CreateTraining(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	t.Run("enabled by default", func(t *testing.T) {
		tr, err := f.svc.CreateTraining(ctx, training.NewTraining{Name: "Marsch 20km"})
		require.NoError(t, err)
		assert.True(t, tr.Enabled)
		assert.False(t, tr.MaxPoints.Valid)
		assert.False(t, tr.Description.Valid)
		assert.NotEmpty(t, tr.ID)
	})

	t.Run("scored training keeps its max points", func(t *testing.T) {
		tr, err := f.svc.CreateTraining(ctx, training.NewTraining{
			Name:        "300 Meter",
			Description: "Obligatorisches Schiessen",
			MaxPoints:   intPtr(90),
			Enabled:     boolPtr(false),
		})
		require.NoError(t, err)
		assert.True(t, tr.RequiresPoints())
		assert.Equal(t, 90, tr.MaxPoints.Int)
		assert.Equal(t, "Obligatorisches Schiessen", tr.Description.String)
		assert.False(t, tr.Enabled)
	})
}

func Test_service_CreateInstance(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()
	dueDate := time.Now().UTC().AddDate(0, 0, 7)

	t.Run("bulk creates one track per person", func(t *testing.T) {
		tr := f.createTraining(t, "Marsch 20km", nil)

		inst, trackCount, err := f.svc.CreateInstance(ctx, training.NewInstance{
			TrainingID: tr.ID,
			DueDate:    dueDate,
			PersonIDs:  f.personIDs(),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, trackCount)
		assert.Equal(t, "Marsch 20km", inst.Name, "name defaults to the training name")

		detail, err := f.svc.InstanceDetail(ctx, inst.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Incomplete, 3)
		assert.Empty(t, detail.Completed)
	})

	t.Run("duplicate person IDs create a single track", func(t *testing.T) {
		tr := f.createTraining(t, "Sanität", nil)
		ids := append(f.personIDs(), f.persons[0].ID)

		_, trackCount, err := f.svc.CreateInstance(ctx, training.NewInstance{
			TrainingID: tr.ID,
			DueDate:    dueDate,
			PersonIDs:  ids,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, trackCount)
	})

	t.Run("unknown training is rejected", func(t *testing.T) {
		_, _, err := f.svc.CreateInstance(ctx, training.NewInstance{
			TrainingID: "nope",
			DueDate:    dueDate,
			PersonIDs:  f.personIDs(),
		})
		require.Error(t, err)
		assert.Contains(t, fieldErrors(t, err), "training_id")
	})

	t.Run("disabled training is rejected", func(t *testing.T) {
		tr, err := f.svc.CreateTraining(ctx, training.NewTraining{Name: "Altlast", Enabled: boolPtr(false)})
		require.NoError(t, err)

		_, _, err = f.svc.CreateInstance(ctx, training.NewInstance{
			TrainingID: tr.ID,
			DueDate:    dueDate,
			PersonIDs:  f.personIDs(),
		})
		require.Error(t, err)
		assert.Equal(t, "this training is disabled", fieldErrors(t, err)["training_id"])
	})

	t.Run("unknown persons are rejected", func(t *testing.T) {
		tr := f.createTraining(t, "ABC Schutz", nil)

		_, _, err := f.svc.CreateInstance(ctx, training.NewInstance{
			TrainingID: tr.ID,
			DueDate:    dueDate,
			PersonIDs:  append(f.personIDs(), "ghost"),
		})
		require.Error(t, err)
		assert.Contains(t, fieldErrors(t, err), "person_ids")
	})
}

func Test_service_SetTrackCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("completing a plain training records no score", func(t *testing.T) {
		f := setup(t, 1)
		tr := f.createTraining(t, "Marsch 20km", nil)
		inst := f.createInstance(t, tr.ID)
		trackID := f.trackIDs(t, inst.ID)[f.persons[0].Name]

		track, err := f.svc.SetTrackCompletion(ctx, trackID, training.TrackCompletion{
			Completed: boolPtr(true),
			Points:    intPtr(50), // ignored, training has no max points
		})
		require.NoError(t, err)
		assert.True(t, track.IsCompleted())
		assert.False(t, track.Points.Valid)
	})

	t.Run("scored training requires points", func(t *testing.T) {
		f := setup(t, 1)
		tr := f.createTraining(t, "300 Meter", intPtr(90))
		inst := f.createInstance(t, tr.ID)
		trackID := f.trackIDs(t, inst.ID)[f.persons[0].Name]

		_, err := f.svc.SetTrackCompletion(ctx, trackID, training.TrackCompletion{Completed: boolPtr(true)})
		require.Error(t, err)
		assert.Equal(t, "a score is required to complete this training", fieldErrors(t, err)["points"])

		// state must be unchanged
		detail, err := f.svc.InstanceDetail(ctx, inst.ID)
		require.NoError(t, err)
		assert.Empty(t, detail.Completed)
	})

	t.Run("score outside the range is rejected", func(t *testing.T) {
		f := setup(t, 1)
		tr := f.createTraining(t, "FTA 5", intPtr(50))
		inst := f.createInstance(t, tr.ID)
		trackID := f.trackIDs(t, inst.ID)[f.persons[0].Name]

		for _, points := range []int{-1, 60} {
			_, err := f.svc.SetTrackCompletion(ctx, trackID, training.TrackCompletion{
				Completed: boolPtr(true),
				Points:    intPtr(points),
			})
			require.Error(t, err)
			assert.Equal(t, "score must be between 0 and the training's max points", fieldErrors(t, err)["points"])
		}

		detail, err := f.svc.InstanceDetail(ctx, inst.ID)
		require.NoError(t, err)
		assert.Empty(t, detail.Completed)
	})

	t.Run("uncompleting clears the score", func(t *testing.T) {
		f := setup(t, 1)
		tr := f.createTraining(t, "300 Meter", intPtr(90))
		inst := f.createInstance(t, tr.ID)
		trackID := f.trackIDs(t, inst.ID)[f.persons[0].Name]

		track, err := f.svc.SetTrackCompletion(ctx, trackID, training.TrackCompletion{
			Completed: boolPtr(true),
			Points:    intPtr(82),
		})
		require.NoError(t, err)
		assert.Equal(t, 82, track.Points.Int)

		track, err = f.svc.SetTrackCompletion(ctx, trackID, training.TrackCompletion{Completed: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, track.IsCompleted())
		assert.False(t, track.Points.Valid)
	})

	t.Run("completing twice keeps the first completion time", func(t *testing.T) {
		f := setup(t, 1)
		tr := f.createTraining(t, "300 Meter", intPtr(90))
		inst := f.createInstance(t, tr.ID)
		trackID := f.trackIDs(t, inst.ID)[f.persons[0].Name]

		first, err := f.svc.SetTrackCompletion(ctx, trackID, training.TrackCompletion{
			Completed: boolPtr(true),
			Points:    intPtr(70),
		})
		require.NoError(t, err)

		second, err := f.svc.SetTrackCompletion(ctx, trackID, training.TrackCompletion{
			Completed: boolPtr(true),
			Points:    intPtr(85),
		})
		require.NoError(t, err)
		assert.Equal(t, first.CompletedAt.Time, second.CompletedAt.Time)
		assert.Equal(t, 85, second.Points.Int, "the score may still be corrected")
	})

	t.Run("unknown track", func(t *testing.T) {
		f := setup(t, 1)
		_, err := f.svc.SetTrackCompletion(ctx, "nope", training.TrackCompletion{Completed: boolPtr(true)})
		assert.Equal(t, training.ErrTrackNotFound, err)
	})
}

func Test_service_CompanyOverview(t *testing.T) {
	f := setup(t, 4)
	ctx := context.Background()

	// second platoon, 2 members
	platoon2, err := f.orgSvc.CreatePlatoon(ctx, org.NewPlatoon{Name: "Zug 2", CompanyID: f.company.ID})
	require.NoError(t, err)
	for _, name := range []string{"Steiner", "Graf"} {
		p, err := f.orgSvc.CreatePerson(ctx, org.NewPerson{Name: name, PlatoonID: platoon2.ID})
		require.NoError(t, err)
		f.persons = append(f.persons, p)
	}

	tr := f.createTraining(t, "300 Meter", intPtr(90))
	inst := f.createInstance(t, tr.ID)

	// complete 3 of 6 tracks
	trackIDs := f.trackIDs(t, inst.ID)
	for i, name := range []string{"Brunner", "Schneider", "Steiner"} {
		_, err := f.svc.SetTrackCompletion(ctx, trackIDs[name], training.TrackCompletion{
			Completed: boolPtr(true),
			Points:    intPtr(80 + i), // 80, 81, 82
		})
		require.NoError(t, err)
	}

	overview, err := f.svc.CompanyOverview(ctx, f.company.ID)
	require.NoError(t, err)

	assert.Equal(t, 6, overview.TotalMembers)
	assert.Equal(t, 3, overview.Summary.CompletedCount)
	assert.Equal(t, 6, overview.Summary.TotalCount)
	assert.Equal(t, 50, overview.Summary.CompletionPercent)
	assert.Equal(t, 81, overview.Summary.AverageScore.Int)

	require.Len(t, overview.Platoons, 2)
	byName := map[string]stats.Summary{}
	for _, p := range overview.Platoons {
		byName[p.Name] = p.Summary
	}
	assert.Equal(t, 2, byName["Zug 1"].CompletedCount)
	assert.Equal(t, 1, byName["Zug 2"].CompletedCount)

	require.Len(t, overview.TrainingStats, 1)
	st := overview.TrainingStats[0]
	assert.Equal(t, 3, st.CompletionCount)
	assert.Equal(t, 6, st.TotalMembers)
	assert.Len(t, st.CompletionByPlatoon, 2)

	t.Run("unknown company", func(t *testing.T) {
		_, err := f.svc.CompanyOverview(ctx, "nope")
		assert.Equal(t, org.ErrCompanyNotFound, err)
	})
}

func Test_service_PlatoonDetail(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	tr := f.createTraining(t, "300 Meter", intPtr(90))
	inst := f.createInstance(t, tr.ID)

	trackIDs := f.trackIDs(t, inst.ID)
	_, err := f.svc.SetTrackCompletion(ctx, trackIDs["Brunner"], training.TrackCompletion{
		Completed: boolPtr(true),
		Points:    intPtr(85),
	})
	require.NoError(t, err)

	detail, err := f.svc.PlatoonDetail(ctx, f.platoon.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, detail.MemberCount)
	assert.Equal(t, 1, detail.Summary.CompletedCount)
	assert.Equal(t, 3, detail.Summary.TotalCount)

	// members are sorted by name and include everyone
	require.Len(t, detail.Members, 3)
	assert.Equal(t, []string{"Brunner", "Meier", "Schneider"}, memberNames(detail.Members))

	brunner := detail.Members[0]
	assert.Equal(t, 100, brunner.CompletionPercent)
	assert.Equal(t, stats.StatusComplete, brunner.Status)
	assert.Equal(t, stats.StatusBehind, detail.Members[1].Status)

	// only members with progress qualify as top performers
	require.Len(t, detail.TopPerformers, 1)
	assert.Equal(t, "Brunner", detail.TopPerformers[0].Name)

	require.Len(t, detail.Trainings, 1)
	assert.Equal(t, 3, detail.Trainings[0].TotalMembers)

	assert.Len(t, detail.Trend, core.Conf.TrendWindowDays)
	var trendTotal int
	for _, p := range detail.Trend {
		trendTotal += p.CompletedCount
	}
	assert.Equal(t, 1, trendTotal, "today's completion is inside the window")

	t.Run("unknown platoon", func(t *testing.T) {
		_, err := f.svc.PlatoonDetail(ctx, "nope")
		assert.Equal(t, org.ErrPlatoonNotFound, err)
	})
}

func Test_service_InstanceDetail(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	tr := f.createTraining(t, "300 Meter", intPtr(90))
	inst := f.createInstance(t, tr.ID)

	trackIDs := f.trackIDs(t, inst.ID)
	for _, name := range []string{"Brunner", "Meier"} {
		_, err := f.svc.SetTrackCompletion(ctx, trackIDs[name], training.TrackCompletion{
			Completed: boolPtr(true),
			Points:    intPtr(75),
		})
		require.NoError(t, err)
	}

	detail, err := f.svc.InstanceDetail(ctx, inst.ID)
	require.NoError(t, err)

	assert.Equal(t, inst.ID, detail.Instance.ID)
	assert.Equal(t, tr.ID, detail.Training.ID)
	assert.Len(t, detail.Completed, 2)
	require.Len(t, detail.Incomplete, 1)
	assert.Equal(t, "Schneider", detail.Incomplete[0].PersonName)
	assert.Equal(t, 67, detail.Summary.CompletionPercent)

	require.Len(t, detail.ScoreDistribution, 6)
	var total int
	for _, b := range detail.ScoreDistribution {
		total += b.Count
	}
	assert.Equal(t, 2, total)

	t.Run("unknown instance", func(t *testing.T) {
		_, err := f.svc.InstanceDetail(ctx, "nope")
		assert.Equal(t, training.ErrInstanceNotFound, err)
	})
}

func memberNames(members []training.MemberRow) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}
