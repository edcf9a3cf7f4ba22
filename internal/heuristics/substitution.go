package heuristics

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/mikey/phishing-detector/internal/core"
)

// Confusable maps a digit to the letters it is commonly used to imitate
type Confusable struct {
	Digit   rune
	Letters []rune
}

// DefaultConfusables returns the digit-for-letter table, in evaluation order
func DefaultConfusables() []Confusable {
	return []Confusable{
		{Digit: '0', Letters: []rune{'o'}},
		{Digit: '1', Letters: []rune{'i', 'l'}},
		{Digit: '3', Letters: []rune{'e'}},
		{Digit: '4', Letters: []rune{'a'}},
		{Digit: '5', Letters: []rune{'s'}},
		{Digit: '7', Letters: []rune{'t'}},
		{Digit: '8', Letters: []rune{'b'}},
		{Digit: '9', Letters: []rune{'g'}},
	}
}

// ParseConfusables reads entries of the form "1=il" into a table
func ParseConfusables(entries []string) ([]Confusable, error) {
	table := make([]Confusable, 0, len(entries))
	for _, entry := range entries {
		digit, letters, ok := strings.Cut(entry, "=")
		digitRunes := []rune(strings.TrimSpace(digit))
		letterRunes := []rune(strings.TrimSpace(letters))
		if !ok || len(digitRunes) != 1 || !unicode.IsDigit(digitRunes[0]) || len(letterRunes) == 0 {
			return nil, fmt.Errorf("invalid confusable entry %q, expected <digit>=<letters>", entry)
		}
		for _, l := range letterRunes {
			if !unicode.IsLetter(l) {
				return nil, fmt.Errorf("invalid confusable entry %q: %q is not a letter", entry, l)
			}
		}
		table = append(table, Confusable{Digit: digitRunes[0], Letters: letterRunes})
	}
	return table, nil
}

// Substitution detects domain labels that spell a word once digits are read as letters
type Substitution struct {
	table []Confusable
	first map[rune]rune
}

// NewSubstitution creates a substitution detector over table
func NewSubstitution(table []Confusable) *Substitution {
	first := make(map[rune]rune, len(table))
	for _, c := range table {
		if _, seen := first[c.Digit]; !seen && len(c.Letters) > 0 {
			first[c.Digit] = c.Letters[0]
		}
	}
	return &Substitution{table: table, first: first}
}

func (s *Substitution) Kind() core.DetectorKind { return core.KindSubstitution }

func (s *Substitution) Detect(_ context.Context, target *core.Target) core.DetectorResult {
	found, candidate := s.Evaluate(target.Domain.DomainLabel)
	return &core.SubstitutionResult{
		HasSubstitution: found,
		Candidate:       candidate,
		Outcome:         core.Succeeded(),
	}
}

// Evaluate reports whether label reads as letters once its digits are substituted,
// and returns the first all-letter candidate found
func (s *Substitution) Evaluate(label string) (bool, string) {
	if !containsDigit(label) || isNumeric(label) {
		return false, ""
	}

	for _, c := range s.table {
		if !strings.ContainsRune(label, c.Digit) {
			continue
		}
		for _, letter := range c.Letters {
			candidate := s.substitute(label, c.Digit, letter)
			if isAlpha(candidate) {
				return true, candidate
			}
		}
	}
	return false, ""
}

// substitute replaces digit with letter and every other known digit with its first letter
func (s *Substitution) substitute(label string, digit, letter rune) string {
	return strings.Map(func(r rune) rune {
		if r == digit {
			return letter
		}
		if l, ok := s.first[r]; ok {
			return l
		}
		return r
	}, label)
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func isNumeric(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}

func isAlpha(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) < 0
}
