// Package stats is the progress aggregation engine: pure, deterministic
// folds over raw training-track rows. Nothing in here touches storage or
// mutates shared state; every function may run concurrently.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/volatiletech/null/v8"
)

// TrackRow is one training-track row as handed over by the repository
// layer, denormalized with its person, instance and training.
type TrackRow struct {
	ID                 string    `json:"id" db:"id"`
	PersonID           string    `json:"person_id" db:"person_id"`
	PersonName         string    `json:"person_name" db:"person_name"`
	PlatoonID          string    `json:"platoon_id" db:"platoon_id"`
	TrainingInstanceID string    `json:"training_instance_id" db:"training_instance_id"`
	InstanceName       string    `json:"instance_name" db:"instance_name"`
	TrainingID         string    `json:"training_id" db:"training_id"`
	TrainingName       string    `json:"training_name" db:"training_name"`
	MaxPoints          null.Int  `json:"max_points" db:"max_points"`
	DueDate            time.Time `json:"due_date" db:"due_date"`
	CompletedAt        null.Time `json:"completed_at" db:"completed_at"`
	Points             null.Int  `json:"points" db:"points"`
}

func (t TrackRow) IsCompleted() bool { return t.CompletedAt.Valid }

// Summary holds completion counts for a set of tracks.
type Summary struct {
	CompletedCount    int      `json:"completed_count"`
	TotalCount        int      `json:"total_count"`
	CompletionPercent int      `json:"completion_percent"`
	AverageScore      null.Int `json:"average_score"`
}

// InstanceStat aggregates one training instance within a scope.
// TotalMembers is the member count of the whole aggregation scope
// (company or platoon), not the per-instance assigned count.
type InstanceStat struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	TrainingID          string         `json:"training_id"`
	TrainingName        string         `json:"training_name"`
	DueDate             time.Time      `json:"due_date"`
	MaxPoints           null.Int       `json:"max_points"`
	CompletionCount     int            `json:"completion_count"`
	TotalMembers        int            `json:"total_members"`
	AverageScore        null.Int       `json:"average_score"`
	CompletionByPlatoon map[string]int `json:"completion_by_platoon"`
	Scores              []int          `json:"scores"`
}

// Bucket is one bar of a score histogram.
type Bucket struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Count int    `json:"count"`
}

// TrendPoint is one calendar day of a dense completion series.
type TrendPoint struct {
	Date           string `json:"date"` // YYYY-MM-DD
	CompletedCount int    `json:"completed_count"`
}

type MemberStatus string

const (
	StatusComplete MemberStatus = "Complete"
	StatusOnTrack  MemberStatus = "On Track"
	StatusBehind   MemberStatus = "Behind"
)

const (
	bucketCount = 6
	dateLayout  = "2006-01-02"
)

// Summarize folds tracks into completion counts, an integer percent and
// the average of recorded scores. Empty input yields the zero Summary.
func Summarize(tracks []TrackRow) Summary {
	var s Summary
	s.TotalCount = len(tracks)

	var scoreSum, scoreCount int
	for _, t := range tracks {
		if t.IsCompleted() {
			s.CompletedCount++
		}
		if t.Points.Valid {
			scoreSum += t.Points.Int
			scoreCount++
		}
	}

	if s.TotalCount > 0 {
		s.CompletionPercent = roundRatio(s.CompletedCount, s.TotalCount)
	}
	if scoreCount > 0 {
		s.AverageScore = null.IntFrom(roundDiv(scoreSum, scoreCount))
	}
	return s
}

// SummarizeByGroup partitions tracks by the given key and summarizes each
// partition. The mapping is unordered; callers sort as needed.
func SummarizeByGroup(tracks []TrackRow, key func(TrackRow) string) map[string]Summary {
	groups := make(map[string][]TrackRow)
	for _, t := range tracks {
		k := key(t)
		groups[k] = append(groups[k], t)
	}

	summaries := make(map[string]Summary, len(groups))
	for k, group := range groups {
		summaries[k] = Summarize(group)
	}
	return summaries
}

// BuildTrainingInstanceStats groups tracks by training instance and
// aggregates each group. Results preserve first-seen order of the input;
// callers apply their own ordering (due date, name, ...).
func BuildTrainingInstanceStats(tracks []TrackRow, totalMembers int) []InstanceStat {
	instStats := make([]InstanceStat, 0)
	index := make(map[string]int) // instance ID -> position in instStats

	for _, t := range tracks {
		i, ok := index[t.TrainingInstanceID]
		if !ok {
			name := t.InstanceName
			if name == "" {
				name = t.TrainingName
			}
			instStats = append(instStats, InstanceStat{
				ID:                  t.TrainingInstanceID,
				Name:                name,
				TrainingID:          t.TrainingID,
				TrainingName:        t.TrainingName,
				DueDate:             t.DueDate,
				MaxPoints:           t.MaxPoints,
				TotalMembers:        totalMembers,
				CompletionByPlatoon: make(map[string]int),
				Scores:              make([]int, 0),
			})
			i = len(instStats) - 1
			index[t.TrainingInstanceID] = i
		}

		if t.IsCompleted() {
			instStats[i].CompletionCount++
			instStats[i].CompletionByPlatoon[t.PlatoonID]++
		}
		if t.Points.Valid {
			instStats[i].Scores = append(instStats[i].Scores, t.Points.Int)
		}
	}

	for i := range instStats {
		if n := len(instStats[i].Scores); n > 0 {
			var sum int
			for _, score := range instStats[i].Scores {
				sum += score
			}
			instStats[i].AverageScore = null.IntFrom(roundDiv(sum, n))
		}
	}
	return instStats
}

// BuildScoreDistribution buckets scores into a fixed-size histogram.
// The last bucket's upper bound is clamped to the observed maximum so the
// max score always lands inside a valid bucket.
func BuildScoreDistribution(scores []int, maxPoints null.Int) []Bucket {
	if len(scores) == 0 {
		return []Bucket{}
	}

	observedMax := 1
	if maxPoints.Valid && maxPoints.Int > observedMax {
		observedMax = maxPoints.Int
	}
	for _, score := range scores {
		if score > observedMax {
			observedMax = score
		}
	}

	bucketSize := (observedMax + bucketCount - 1) / bucketCount // ceil
	if bucketSize < 1 {
		bucketSize = 1
	}

	buckets := make([]Bucket, bucketCount)
	for i := range buckets {
		start := i * bucketSize
		end := (i+1)*bucketSize - 1
		if i == bucketCount-1 {
			end = observedMax
		}
		buckets[i] = Bucket{Label: fmt.Sprintf("%d–%d", start, end), Start: start, End: end}
	}

	for _, score := range scores {
		i := score / bucketSize
		if score == observedMax || i > bucketCount-1 {
			i = bucketCount - 1
		}
		buckets[i].Count++
	}
	return buckets
}

// BuildProgressTrend counts completions per calendar day over the last
// windowDays days ending at now. The series is dense: days with no
// completions are emitted with a zero count.
func BuildProgressTrend(tracks []TrackRow, windowDays int, now time.Time) []TrendPoint {
	if windowDays < 1 {
		return []TrendPoint{}
	}

	perDay := make(map[string]int)
	for _, t := range tracks {
		if t.IsCompleted() {
			perDay[t.CompletedAt.Time.Format(dateLayout)]++
		}
	}

	trend := make([]TrendPoint, 0, windowDays)
	start := now.AddDate(0, 0, -(windowDays - 1))
	for day := 0; day < windowDays; day++ {
		date := start.AddDate(0, 0, day).Format(dateLayout)
		trend = append(trend, TrendPoint{Date: date, CompletedCount: perDay[date]})
	}
	return trend
}

// ClassifyMemberStatus maps a completion percent to a member status.
func ClassifyMemberStatus(percent int) MemberStatus {
	switch {
	case percent == 100:
		return StatusComplete
	case percent >= 80:
		return StatusOnTrack
	default:
		return StatusBehind
	}
}

// roundRatio returns num/denom as a percent, rounded half-up.
func roundRatio(num, denom int) int {
	return int(math.Round(float64(num) / float64(denom) * 100))
}

// roundDiv returns num/denom rounded half-up.
func roundDiv(num, denom int) int {
	return int(math.Round(float64(num) / float64(denom)))
}
