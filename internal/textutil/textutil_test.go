package textutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Smith  ", want: "Smith"},
		{in: "John\n  Smith", want: "John Smith"},
		{in: "ＡＢＣ１２３", want: "ABC123"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
