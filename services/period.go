package services

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// periodLayout is the "Mon-YY" label used in reading column headers.
const periodLayout = "Jan-06"

// Period is a billing month label together with the first day of that month.
type Period struct {
	Label string
	Start time.Time
}

// ParsePeriod parses a "Mon-YY" label such as "Jul-24". Month names are
// matched case-insensitively; two-digit years follow the time package rules.
func ParsePeriod(label string) (Period, error) {
	label = strings.TrimSpace(label)
	t, err := time.Parse(periodLayout, label)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", label, err)
	}
	return Period{Label: label, Start: t}, nil
}

// FormatPeriod builds a period label from selector values, e.g. ("Jul", 2024) -> "Jul-24".
func FormatPeriod(month string, year int) string {
	return fmt.Sprintf("%s-%02d", month, year%100)
}

// PeriodSequence is a chronologically ordered list of distinct periods.
type PeriodSequence []Period

// NewPeriodSequence parses the given labels, silently dropping the ones that
// are not valid "Mon-YY" periods, and sorts the rest by calendar month.
// Duplicate labels are kept once.
func NewPeriodSequence(labels []string) PeriodSequence {
	seen := make(map[string]bool, len(labels))
	seq := make(PeriodSequence, 0, len(labels))
	for _, l := range labels {
		p, err := ParsePeriod(l)
		if err != nil || seen[p.Label] {
			continue
		}
		seen[p.Label] = true
		seq = append(seq, p)
	}
	sort.SliceStable(seq, func(i, j int) bool {
		return seq[i].Start.Before(seq[j].Start)
	})
	return seq
}

// Labels returns the period labels in chronological order.
func (s PeriodSequence) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Label
	}
	return out
}

// Index returns the position of label in the sequence, or -1.
func (s PeriodSequence) Index(label string) int {
	label = strings.TrimSpace(label)
	for i, p := range s {
		if p.Label == label {
			return i
		}
	}
	return -1
}

// Previous returns the period immediately before target. ok is false when
// target is the first period or is not in the sequence.
func (s PeriodSequence) Previous(target string) (prev string, ok bool) {
	idx := s.Index(target)
	if idx <= 0 {
		return "", false
	}
	return s[idx-1].Label, true
}

// PreviousPeriod resolves the period before target among known labels.
// Unparseable entries in known are ignored.
func PreviousPeriod(target string, known []string) (string, bool) {
	return NewPeriodSequence(known).Previous(target)
}
