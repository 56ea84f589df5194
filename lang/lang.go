// Package lang narrates body state in English.
package lang

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gertd/go-pluralize"
)

const (
	DefaultPattern   = "%s"
	DefaultSeparator = ","
	DefaultOperator  = "and"
)

var client = pluralize.NewClient()

func Singular(word string) string {
	return client.Singular(word)
}

func Plural(word string) string {
	return client.Plural(word)
}

// Capitalize upper cases the first letter of s and leaves the rest alone.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var smallNumbers = map[int]string{0: "no", 2: "two", 3: "three"}

// Card counts word, spelling out small numbers: "no eyes", "an eye", "two eyes", "4 eyes".
func Card(count int, word string) string {
	if count == 1 {
		return Indef(word)
	}
	if spelled, found := smallNumbers[count]; found {
		return fmt.Sprintf("%s %s", spelled, client.Plural(word))
	}
	return client.Pluralize(word, count, true)
}

var (
	silentH     = []string{"hour", "honest", "honor", "honour", "heir"}
	consonantU  = []string{"uni", "use", "usu", "uti", "ure", "eu", "one", "once"}
	vowelDigits = "8"
)

// Article returns the indefinite article for word.
func Article(word string) string {
	lower := strings.ToLower(word)
	if lower == "" {
		return "a"
	}
	for _, prefix := range silentH {
		if strings.HasPrefix(lower, prefix) {
			return "an"
		}
	}
	for _, prefix := range consonantU {
		if strings.HasPrefix(lower, prefix) {
			return "a"
		}
	}
	if strings.ContainsRune("aeiou"+vowelDigits, rune(lower[0])) {
		return "an"
	}
	return "a"
}

func Indef(word string) string {
	return fmt.Sprintf("%s %s", Article(word), word)
}

type Tense int

const (
	NoTense Tense = iota
	Present
	Past
)

func (t Tense) verb(count int) string {
	switch t {
	case Present:
		if count == 1 {
			return "is"
		}
		return "are"
	case Past:
		if count == 1 {
			return "was"
		}
		return "were"
	}
	return ""
}

// Enumerator joins words into an English list with a serial comma,
// optionally followed by a conjugated "to be".
type Enumerator struct {
	Pattern   string
	Separator string
	Operator  string
	Tense     Tense
}

func (e Enumerator) Do(elements ...string) string {
	pattern, separator, operator := DefaultPattern, DefaultSeparator, DefaultOperator
	if e.Pattern != "" {
		pattern = e.Pattern
	}
	if e.Separator != "" {
		separator = e.Separator
	}
	if e.Operator != "" {
		operator = e.Operator
	}
	res := &bytes.Buffer{}
	for idx, element := range elements {
		fmt.Fprintf(res, pattern, element)
		switch {
		case idx+2 < len(elements):
			fmt.Fprintf(res, "%s ", separator)
		case idx+2 == len(elements) && len(elements) > 2:
			fmt.Fprintf(res, "%s %s ", separator, operator)
		case idx+2 == len(elements):
			fmt.Fprintf(res, " %s ", operator)
		}
	}
	if verb := e.Tense.verb(len(elements)); verb != "" {
		fmt.Fprintf(res, " %s", verb)
	}
	return res.String()
}

var irregularVerbs = map[string]string{
	"be":   "is",
	"have": "has",
	"go":   "goes",
	"do":   "does",
}

// ThirdPersonSingular conjugates verb for "he", "she" or "it".
func ThirdPersonSingular(verb string) string {
	if verb == "" {
		return ""
	}
	if irregular, found := irregularVerbs[strings.ToLower(verb)]; found {
		return irregular
	}
	for _, suffix := range []string{"s", "sh", "ch", "x", "z"} {
		if strings.HasSuffix(verb, suffix) {
			return verb + "es"
		}
	}
	if len(verb) > 1 && strings.HasSuffix(verb, "y") && !strings.ContainsRune("aeiou", rune(verb[len(verb)-2])) {
		return verb[:len(verb)-1] + "ies"
	}
	return verb + "s"
}

// Possessive returns "wolf's" or "James'".
func Possessive(noun string) string {
	if noun == "" {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(noun), "s") {
		return noun + "'"
	}
	return noun + "'s"
}

// Severity describes a fraction in [0, 1] as an adjective.
func Severity(fraction float64) string {
	switch {
	case fraction <= 0:
		return "healed"
	case fraction < 0.2:
		return "minor"
	case fraction < 0.5:
		return "moderate"
	case fraction < 0.8:
		return "severe"
	default:
		return "critical"
	}
}

// Split breaks a CamelCase part name into lower case words: "LeftLung" becomes "left lung".
func Split(name string) string {
	res := &bytes.Buffer{}
	for idx, r := range name {
		if unicode.IsUpper(r) {
			if idx > 0 {
				res.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		res.WriteRune(r)
	}
	return res.String()
}
