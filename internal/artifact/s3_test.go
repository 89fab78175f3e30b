package artifact

import "testing"

func TestKeyNamespacing(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "no prefix", prefix: "", want: "sessions/ses-1/units/unit-2/take1.webm"},
		{name: "with prefix", prefix: "screening", want: "screening/sessions/ses-1/units/unit-2/take1.webm"},
		{name: "prefix slashes trimmed", prefix: "/screening/", want: "screening/sessions/ses-1/units/unit-2/take1.webm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &S3Store{prefix: cleanPrefix(tt.prefix)}
			if got := s.Key("ses-1", "unit-2", "take1.webm"); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeysDifferAcrossSessions(t *testing.T) {
	s := &S3Store{}
	a := s.Key("ses-1", "unit-1", "r.webm")
	b := s.Key("ses-2", "unit-1", "r.webm")
	if a == b {
		t.Errorf("keys collide across sessions: %q", a)
	}
}
