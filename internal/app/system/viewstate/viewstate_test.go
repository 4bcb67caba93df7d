package viewstate

import (
	"reflect"
	"testing"

	"github.com/dalemusser/stratagrades/internal/app/system/gradeview"
	"github.com/dalemusser/stratagrades/internal/domain/models"
)

func payload() *models.GradesResponse {
	return &models.GradesResponse{
		Grades: []models.Grade{
			{Subject: "Math", Title: "Quiz", Percent: 80, Date: "2024-01-01"},
			{Subject: "Art", Title: "Sketch", Percent: 95, Date: "2024-01-15"},
		},
		Session: &models.SessionInfo{Status: models.SessionActive, User: "Ada"},
	}
}

func TestInitial(t *testing.T) {
	s := Initial()
	if s.Phase != Pending {
		t.Errorf("Phase = %q, want %q", s.Phase, Pending)
	}
	if !s.Filter.IsDefault() {
		t.Errorf("Filter = %+v, want default", s.Filter)
	}
	if !s.IsLoading() || s.HasError() {
		t.Error("initial state should be loading without error")
	}
	if v := View(s); len(v.FilteredGrades) != 0 {
		t.Errorf("pending view has %d grades, want 0", len(v.FilteredGrades))
	}
}

func TestSucceeded(t *testing.T) {
	s := Succeeded(BeginFetch(Initial()), payload())

	if s.Phase != Loaded {
		t.Fatalf("Phase = %q, want %q", s.Phase, Loaded)
	}
	if v := View(s); len(v.FilteredGrades) != 2 {
		t.Errorf("len(FilteredGrades) = %d, want 2", len(v.FilteredGrades))
	}
}

func TestBeginFetch_KeepsPreviousPayload(t *testing.T) {
	p := payload()
	s := BeginFetch(Succeeded(Initial(), p))

	if s.Payload != p {
		t.Error("BeginFetch should keep the previous payload until the fetch resolves")
	}
	if s.Phase != Pending {
		t.Errorf("Phase = %q, want %q", s.Phase, Pending)
	}
}

func TestFailed_DiscardsPayload(t *testing.T) {
	s := Failed(BeginFetch(Succeeded(Initial(), payload())), "We could not load your grades right now.")

	if s.Phase != Errored || !s.HasError() {
		t.Fatalf("Phase = %q, want %q", s.Phase, Errored)
	}
	if s.Payload != nil {
		t.Error("Failed should discard the payload")
	}
	v := View(s)
	if len(v.FilteredGrades) != 0 || v.OverallAverage != 0 {
		t.Errorf("errored view computed from stale data: %+v", v)
	}
}

func TestReload(t *testing.T) {
	loaded := Succeeded(Initial(), payload())
	if got := Reload(loaded); !reflect.DeepEqual(got, loaded) {
		t.Error("Reload should not change a non-errored state")
	}

	errored := Failed(SelectSubject(Initial(), "Math"), "boom")
	s := Reload(errored)
	if s.Phase != Pending {
		t.Errorf("Phase = %q, want %q", s.Phase, Pending)
	}
	if s.ErrMessage != "" {
		t.Errorf("ErrMessage = %q, want empty", s.ErrMessage)
	}
	if s.Filter.Subject != "Math" {
		t.Errorf("Filter.Subject = %q, want Math", s.Filter.Subject)
	}
}

func TestFilterTransitions(t *testing.T) {
	s := Succeeded(Initial(), payload())
	initial := View(s)

	s = SelectSubject(s, "Math")
	s = SetMinimumPercent(s, 90)
	if got := View(s); len(got.FilteredGrades) != 0 {
		t.Errorf("filtered len = %d, want 0", len(got.FilteredGrades))
	}

	s = ResetFilters(s)
	if s.Filter != gradeview.DefaultFilter() {
		t.Errorf("Filter after reset = %+v", s.Filter)
	}
	if got := View(s); !reflect.DeepEqual(got.FilteredGrades, initial.FilteredGrades) {
		t.Errorf("reset view = %+v, want %+v", got.FilteredGrades, initial.FilteredGrades)
	}

	s = SelectSubject(s, "")
	if s.Filter.Subject != gradeview.AllSubjects {
		t.Errorf("empty subject = %q, want %q", s.Filter.Subject, gradeview.AllSubjects)
	}
}

func TestTransitions_DoNotMutateInput(t *testing.T) {
	s := Succeeded(Initial(), payload())
	_ = SelectSubject(s, "Art")
	_ = SetMinimumPercent(s, 50)
	_ = Failed(s, "x")

	if s.Filter != gradeview.DefaultFilter() || s.Phase != Loaded || s.Payload == nil {
		t.Errorf("input state changed: %+v", s)
	}
}

func TestSessionBadge(t *testing.T) {
	tests := []struct {
		name      string
		state     State
		wantLabel string
		wantUser  string
	}{
		{"pending phase", Initial(), "Connecting", "Anonymous"},
		{"active session", Succeeded(Initial(), payload()), "Session active", "Ada"},
		{
			"expired session",
			Succeeded(Initial(), &models.GradesResponse{Session: &models.SessionInfo{Status: models.SessionExpired}}),
			"Session expired", "Anonymous",
		},
		{
			"unknown status",
			Succeeded(Initial(), &models.GradesResponse{Session: &models.SessionInfo{Status: "weird", User: "Bo"}}),
			"Connecting", "Bo",
		},
		{"no session block", Succeeded(Initial(), &models.GradesResponse{}), "Connecting", "Anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := SessionBadge(tt.state)
			if b.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", b.Label, tt.wantLabel)
			}
			if b.User != tt.wantUser {
				t.Errorf("User = %q, want %q", b.User, tt.wantUser)
			}
		})
	}
}
