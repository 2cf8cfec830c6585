package errors

import "testing"

func TestValidateMarker(t *testing.T) {
	tests := []struct {
		name    string
		marker  string
		wantErr bool
	}{
		{"default tildes", "~~~", false},
		{"backticks", "```", false},
		{"empty", "", true},
		{"too short", "~~", true},
		{"too long", "~~~~", true},
		{"mixed characters", "~`~", true},
		{"letters", "aaa", true},
		{"digits", "111", true},
		{"whitespace", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarker(tt.marker)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMarker(%q) error = %v, wantErr %v", tt.marker, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidMarker) {
				t.Errorf("ValidateMarker(%q) code = %v, want %v", tt.marker, GetCode(err), ErrCodeInvalidMarker)
			}
		})
	}
}

func TestValidateRoute(t *testing.T) {
	tests := []struct {
		name    string
		route   string
		wantErr bool
	}{
		{"simple", "images/diagrams", false},
		{"single segment", "fig", false},
		{"empty", "", true},
		{"parent traversal", "../etc", true},
		{"double slash", "images//diagrams", true},
		{"backslash", "images\\diagrams", true},
		{"null byte", "images\x00", true},
		{"control character", "images\x01x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoute(tt.route)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRoute(%q) error = %v, wantErr %v", tt.route, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateRoute(%q) code = %v, want %v", tt.route, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}
