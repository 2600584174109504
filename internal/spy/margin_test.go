package spy

import (
	"testing"

	"github.com/Iron-Ham/sectionspy/internal/errors"
)

func TestParseMargin(t *testing.T) {
	tests := []struct {
		in         string
		wantTop    float64 // resolved against 800
		wantBottom float64
		wantString string
	}{
		{DefaultActivationMargin, 100, 400, "-100px 0px -50% 0px"},
		{"", 0, 800, "0px 0px 0px 0px"},
		{"0", 0, 800, "0px 0px 0px 0px"},
		{"10px", -10, 810, "10px 10px 10px 10px"},
		{"-20px 5%", 20, 780, "-20px 5% -20px 5%"},
		{"1px 2px 3px", -1, 803, "1px 2px 3px 2px"},
		{"  -10%   0px  -25%  0px ", 80, 600, "-10% 0px -25% 0px"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMargin(tt.in)
			if err != nil {
				t.Fatalf("ParseMargin(%q) error = %v", tt.in, err)
			}
			top, bottom := m.Bounds(800)
			if top != tt.wantTop || bottom != tt.wantBottom {
				t.Errorf("Bounds(800) = (%v, %v), want (%v, %v)", top, bottom, tt.wantTop, tt.wantBottom)
			}
			if got := m.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
		})
	}
}

func TestParseMargin_Invalid(t *testing.T) {
	for _, in := range []string{
		"10",
		"10em",
		"px",
		"%",
		"1px 2px 3px 4px 5px",
		"NaNpx",
		"Infpx",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMargin(in)
			if !errors.Is(err, errors.ErrInvalidMargin) {
				t.Errorf("ParseMargin(%q) error = %v, want ErrInvalidMargin", in, err)
			}
		})
	}
}
