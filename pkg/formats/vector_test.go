package formats

import (
	"errors"
	"strings"
	"testing"
)

func TestParseVector(t *testing.T) {
	input := `# shape and texture
0.5 -1.25, 3e-2
4	5;6

7 # trailing comment
`
	got, err := ParseVector(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseVector failed: %v", err)
	}

	want := []float64{0.5, -1.25, 0.03, 4, 5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseVector_Errors(t *testing.T) {
	if _, err := ParseVector(strings.NewReader("# nothing\n\n")); !errors.Is(err, ErrEmptyVector) {
		t.Errorf("expected ErrEmptyVector, got %v", err)
	}
	if _, err := ParseVector(strings.NewReader("1 2 abc")); err == nil {
		t.Error("expected parse error")
	}
}

func TestParsePoints(t *testing.T) {
	got, err := ParsePoints(strings.NewReader("10 20\n30.5 40\n"))
	if err != nil {
		t.Fatalf("ParsePoints failed: %v", err)
	}
	want := [][2]float64{{10, 20}, {30.5, 40}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ParsePoints(strings.NewReader("1 2 3")); err == nil {
		t.Error("expected error for odd coordinate count")
	}
}
