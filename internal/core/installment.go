// Package core holds the ledger domain types: periods, transactions,
// categories, settings and the installment counter embedded in notes.
package core

import (
	"regexp"
	"strconv"
)

// installmentPattern matches a "current/total" counter anywhere in a note,
// e.g. "iPhone 3/12". Only the first match is considered; notes with more
// than one counter are not supported.
var installmentPattern = regexp.MustCompile(`(\d+)/(\d+)`)

// Installment is the parsed current/total counter of an installment note.
type Installment struct {
	Current int
	Total   int
}

// ParseInstallment extracts the first well-formed installment counter from
// a note. The second return value is false when the note carries no counter.
func ParseInstallment(note string) (Installment, bool) {
	m := installmentPattern.FindStringSubmatch(note)
	if m == nil {
		return Installment{}, false
	}
	current, err := strconv.Atoi(m[1])
	if err != nil {
		return Installment{}, false
	}
	total, err := strconv.Atoi(m[2])
	if err != nil {
		return Installment{}, false
	}
	return Installment{Current: current, Total: total}, true
}

// AdvanceInstallment returns the note with its counter stepped forward by
// one, e.g. "3/12" becomes "4/12". The second return value reports whether
// a next step exists: it is false when the note has no counter or the
// series is exhausted (current >= total), and in both cases the note is
// returned unchanged.
func AdvanceInstallment(note string) (string, bool) {
	loc := installmentPattern.FindStringSubmatchIndex(note)
	if loc == nil {
		return note, false
	}
	current, err := strconv.Atoi(note[loc[2]:loc[3]])
	if err != nil {
		return note, false
	}
	total, err := strconv.Atoi(note[loc[4]:loc[5]])
	if err != nil {
		return note, false
	}
	if current >= total {
		return note, false
	}
	next := note[:loc[0]] + strconv.Itoa(current+1) + "/" + strconv.Itoa(total) + note[loc[1]:]
	return next, true
}
