// Package termio asks questions on line based terminals.
package termio

import (
	"fmt"
	"io"
	"strings"

	"github.com/zond/anatomy/lang"
)

type LineReadWriter interface {
	io.Writer
	ReadLine() (string, error)
}

// Select asks until the answer matches one of options, ignoring case.
// An empty answer picks def, if def is one of options.
func Select(term LineReadWriter, prompt string, options []string, def string) (string, error) {
	labels := make([]string, len(options))
	hasDefault := false
	for i, option := range options {
		labels[i] = option
		if def != "" && strings.EqualFold(option, def) {
			labels[i] = fmt.Sprintf("%s (default)", option)
			def = option
			hasDefault = true
		}
	}
	for {
		fmt.Fprintf(term, "%s %s\n", prompt, lang.Enumerator{Pattern: "[%s]", Operator: "or"}.Do(labels...))
		line, err := term.ReadLine()
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" && hasDefault {
			return def, nil
		}
		for _, option := range options {
			if strings.EqualFold(line, option) {
				return option, nil
			}
		}
		fmt.Fprintf(term, "%q is not an option.\n", line)
	}
}
