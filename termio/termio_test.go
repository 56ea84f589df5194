package termio

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

type fakeTerm struct {
	bytes.Buffer
	lines []string
}

func (f *fakeTerm) ReadLine() (string, error) {
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func TestSelect(t *testing.T) {
	for _, tc := range []struct {
		name  string
		lines []string
		def   string
		want  string
	}{
		{name: "exact", lines: []string{"wolf"}, want: "wolf"},
		{name: "case", lines: []string{"  DEER "}, want: "deer"},
		{name: "default", lines: []string{""}, def: "human", want: "human"},
		{name: "retry", lines: []string{"dragon", "", "human"}, want: "human"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			term := &fakeTerm{lines: tc.lines}
			got, err := Select(term, "Species?", []string{"deer", "human", "wolf"}, tc.def)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSelectPrompt(t *testing.T) {
	term := &fakeTerm{lines: []string{"dragon"}}
	if _, err := Select(term, "Species?", []string{"deer", "human"}, "human"); err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}
	for _, want := range []string{"Species? [deer] or [human (default)]", `"dragon" is not an option.`} {
		if !strings.Contains(term.String(), want) {
			t.Errorf("output %q does not contain %q", term.String(), want)
		}
	}
}
