package testutil

import "github.com/dalemusser/stratagrades/internal/domain/models"

// Float returns a pointer to f, for optional numeric payload fields.
func Float(f float64) *float64 { return &f }

// SampleGrades returns three grades over two subjects whose mean is 78.33.
func SampleGrades() []models.Grade {
	return []models.Grade{
		{Subject: "Math", Title: "Quiz 1", Percent: 80, Date: "2024-01-10", Trend: []float64{70, 75, 80}},
		{Subject: "Art", Title: "Sketchbook", Percent: 90, Date: "2024-01-12", Score: Float(45), MaxPoints: Float(50)},
		{Subject: "Math", Title: "Quiz 2", Percent: 65, Date: "2024-01-05"},
	}
}

// SamplePayload wraps SampleGrades in a payload with an active session.
func SamplePayload() *models.GradesResponse {
	return &models.GradesResponse{
		Grades:      SampleGrades(),
		LastUpdated: "2024-01-12T08:00:00Z",
		Session:     &models.SessionInfo{Status: models.SessionActive, User: "Ada"},
	}
}
