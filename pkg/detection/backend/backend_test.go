package backend

import "testing"

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		want  bool
		local bool
	}{
		{Local, true, true},
		{YuNet, true, true},
		{YOLOPose, true, true},
		{Remote, true, false},
		{"mediapipe", false, false},
		{"", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Valid(tc.name); got != tc.want {
				t.Errorf("Valid(%q) = %v, want %v", tc.name, got, tc.want)
			}
			if got := NeedsModels(tc.name); got != tc.local {
				t.Errorf("NeedsModels(%q) = %v, want %v", tc.name, got, tc.local)
			}
		})
	}
}
