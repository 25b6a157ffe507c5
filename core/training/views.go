package training

import (
	"context"
	"sort"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/stats"
)

type (
	// PlatoonProgress is one per-platoon progress card.
	PlatoonProgress struct {
		org.Platoon
		Summary stats.Summary `json:"summary"`
	}

	// CompanyOverview is the company dashboard aggregate.
	CompanyOverview struct {
		Company       org.Company          `json:"company"`
		TotalMembers  int                  `json:"total_members"`
		Summary       stats.Summary        `json:"summary"`
		Platoons      []PlatoonProgress    `json:"platoons"`
		TrainingStats []stats.InstanceStat `json:"training_stats"`
	}

	// MemberRow is one person's roster line.
	MemberRow struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		stats.Summary
		Status stats.MemberStatus `json:"status"`
	}

	// PlatoonDetail is the platoon dashboard aggregate.
	PlatoonDetail struct {
		Platoon       org.Platoon          `json:"platoon"`
		MemberCount   int                  `json:"member_count"`
		Summary       stats.Summary        `json:"summary"`
		TopPerformers []MemberRow          `json:"top_performers"`
		Members       []MemberRow          `json:"members"`
		Trainings     []stats.InstanceStat `json:"trainings"`
		Trend         []stats.TrendPoint   `json:"trend"`
	}

	// InstanceDetail is the per-instance completion table.
	InstanceDetail struct {
		Instance          Instance         `json:"instance"`
		Training          Training         `json:"training"`
		Completed         []stats.TrackRow `json:"completed"`
		Incomplete        []stats.TrackRow `json:"incomplete"`
		Summary           stats.Summary    `json:"summary"`
		ScoreDistribution []stats.Bucket   `json:"score_distribution"`
	}
)

const topPerformerCount = 3

// CompanyOverview folds the company's tracks into the dashboard
// aggregates. TotalMembers is the company-wide member count; it is also
// the denominator used for every instance stat in this scope.
func (svc *service) CompanyOverview(ctx context.Context, companyID string) (CompanyOverview, error) {
	company, err := svc.orgRepo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return CompanyOverview{}, err
	}
	platoons, err := svc.orgRepo.QueryPlatoonsByCompany(ctx, companyID)
	if err != nil {
		return CompanyOverview{}, err
	}
	rows, err := svc.repo.QueryTrackRowsByCompany(ctx, companyID)
	if err != nil {
		return CompanyOverview{}, err
	}

	var totalMembers int
	for _, p := range platoons {
		totalMembers += p.MemberCount
	}

	perPlatoon := stats.SummarizeByGroup(rows, func(t stats.TrackRow) string { return t.PlatoonID })
	cards := make([]PlatoonProgress, 0, len(platoons))
	for _, p := range platoons {
		cards = append(cards, PlatoonProgress{Platoon: p, Summary: perPlatoon[p.ID]})
	}

	instStats := stats.BuildTrainingInstanceStats(rows, totalMembers)
	sortInstanceStats(instStats)

	return CompanyOverview{
		Company:       company,
		TotalMembers:  totalMembers,
		Summary:       stats.Summarize(rows),
		Platoons:      cards,
		TrainingStats: instStats,
	}, nil
}

// PlatoonDetail folds the platoon's tracks into its dashboard aggregates.
// Members with no assigned tracks still appear, zero-valued.
func (svc *service) PlatoonDetail(ctx context.Context, platoonID string) (PlatoonDetail, error) {
	platoon, err := svc.orgRepo.GetPlatoonByID(ctx, platoonID)
	if err != nil {
		return PlatoonDetail{}, err
	}
	persons, err := svc.orgRepo.QueryPersonsByPlatoon(ctx, platoonID)
	if err != nil {
		return PlatoonDetail{}, err
	}
	rows, err := svc.repo.QueryTrackRowsByPlatoon(ctx, platoonID)
	if err != nil {
		return PlatoonDetail{}, err
	}

	perPerson := stats.SummarizeByGroup(rows, func(t stats.TrackRow) string { return t.PersonID })
	members := make([]MemberRow, 0, len(persons))
	for _, p := range persons {
		summary := perPerson[p.ID]
		members = append(members, MemberRow{
			ID:      p.ID,
			Name:    p.Name,
			Summary: summary,
			Status:  stats.ClassifyMemberStatus(summary.CompletionPercent),
		})
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	instStats := stats.BuildTrainingInstanceStats(rows, len(persons))
	sortInstanceStats(instStats)

	return PlatoonDetail{
		Platoon:       platoon,
		MemberCount:   len(persons),
		Summary:       stats.Summarize(rows),
		TopPerformers: topPerformers(members),
		Members:       members,
		Trainings:     instStats,
		Trend:         stats.BuildProgressTrend(rows, core.Conf.TrendWindowDays, svc.nowFunc()),
	}, nil
}

// InstanceDetail splits an instance's roster into completed and pending
// halves, the way the completion table renders them.
func (svc *service) InstanceDetail(ctx context.Context, instanceID string) (InstanceDetail, error) {
	inst, err := svc.repo.GetInstanceByID(ctx, instanceID)
	if err != nil {
		return InstanceDetail{}, err
	}
	tr, err := svc.repo.GetTrainingByID(ctx, inst.TrainingID)
	if err != nil {
		return InstanceDetail{}, err
	}
	if inst.Name == "" {
		inst.Name = tr.Name
	}
	rows, err := svc.repo.QueryTrackRowsByInstance(ctx, instanceID)
	if err != nil {
		return InstanceDetail{}, err
	}

	completed := make([]stats.TrackRow, 0, len(rows))
	incomplete := make([]stats.TrackRow, 0, len(rows))
	scores := make([]int, 0, len(rows))
	for _, row := range rows {
		if row.IsCompleted() {
			completed = append(completed, row)
			if row.Points.Valid {
				scores = append(scores, row.Points.Int)
			}
		} else {
			incomplete = append(incomplete, row)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		if completed[i].CompletedAt.Time.Equal(completed[j].CompletedAt.Time) {
			return completed[i].PersonName < completed[j].PersonName
		}
		return completed[i].CompletedAt.Time.Before(completed[j].CompletedAt.Time)
	})
	sort.SliceStable(incomplete, func(i, j int) bool { return incomplete[i].PersonName < incomplete[j].PersonName })

	return InstanceDetail{
		Instance:          inst,
		Training:          tr,
		Completed:         completed,
		Incomplete:        incomplete,
		Summary:           stats.Summarize(rows),
		ScoreDistribution: stats.BuildScoreDistribution(scores, tr.MaxPoints),
	}, nil
}

// topPerformers picks the best member rows: highest percent first, only
// members with at least one completion, capped at topPerformerCount.
func topPerformers(members []MemberRow) []MemberRow {
	withProgress := make([]MemberRow, 0, len(members))
	for _, m := range members {
		if m.CompletedCount > 0 {
			withProgress = append(withProgress, m)
		}
	}
	sort.SliceStable(withProgress, func(i, j int) bool {
		return withProgress[i].CompletionPercent > withProgress[j].CompletionPercent
	})
	if len(withProgress) > topPerformerCount {
		withProgress = withProgress[:topPerformerCount]
	}
	return withProgress
}
