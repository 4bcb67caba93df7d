package gradesapi

import (
	"math"
	"time"

	gradestore "github.com/dalemusser/stratagrades/internal/app/store/grades"
	syncstatestore "github.com/dalemusser/stratagrades/internal/app/store/syncstate"
	"github.com/dalemusser/stratagrades/internal/domain/models"
)

// BuildPayload assembles the grades response for one student.
//
// records must already be ordered newest date first (ListForStudent order).
// Subjects appear in first-seen order of that list. Each subject's trend runs
// oldest to newest. Averages are rounded to two decimals.
func BuildPayload(records []gradestore.Record, st *syncstatestore.State) *models.GradesResponse {
	resp := &models.GradesResponse{
		Grades: make([]models.Grade, 0, len(records)),
	}

	type bucket struct {
		percents []float64 // newest first
		best     float64
	}
	order := []string{}
	buckets := map[string]*bucket{}

	var sum float64
	for _, rec := range records {
		g := rec.Grade()
		resp.Grades = append(resp.Grades, g)
		sum += g.Percent

		b, ok := buckets[g.Subject]
		if !ok {
			b = &bucket{best: g.Percent}
			buckets[g.Subject] = b
			order = append(order, g.Subject)
		}
		b.percents = append(b.percents, g.Percent)
		if g.Percent > b.best {
			b.best = g.Percent
		}
	}

	resp.Subjects = make([]models.SubjectAggregate, 0, len(order))
	for _, name := range order {
		b := buckets[name]
		var s float64
		trend := make([]float64, len(b.percents))
		for i, p := range b.percents {
			s += p
			trend[len(b.percents)-1-i] = p
		}
		latest := b.percents[0]
		best := b.best
		resp.Subjects = append(resp.Subjects, models.SubjectAggregate{
			Subject: name,
			Average: round2(s / float64(len(b.percents))),
			Latest:  &latest,
			Best:    &best,
			Trend:   trend,
		})
	}

	total := len(records)
	resp.Aggregates = &models.Aggregates{TotalAssignments: &total}
	if total > 0 {
		avg := round2(sum / float64(total))
		resp.Aggregates.OverallAverage = &avg
	}

	if st != nil {
		status := st.SessionStatus
		if !status.IsValid() {
			status = models.SessionPending
		}
		resp.Session = &models.SessionInfo{Status: status, User: st.User}
		if st.LastSyncedAt != nil {
			resp.LastUpdated = st.LastSyncedAt.UTC().Format(time.RFC3339)
		}
	}

	return resp
}

// derivePercent returns score/max as a percentage, rounded to two decimals.
func derivePercent(score, maxPoints float64) float64 {
	if maxPoints <= 0 {
		return 0
	}
	return round2(score / maxPoints * 100)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
