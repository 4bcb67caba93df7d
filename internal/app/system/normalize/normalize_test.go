package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"StudentID keeps case", StudentID, "  AbC-12 ", "AbC-12"},
		{"Name", Name, "\tAda Lovelace\n", "Ada Lovelace"},
		{"Status", Status, " Expired ", "expired"},
		{"QueryParam", QueryParam, " Math ", "Math"},
		{"empty", Status, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
