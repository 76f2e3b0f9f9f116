package domain

import (
	"fmt"
	"strings"
	"time"
)

// AppendNote appends note to an existing notes log under a timestamped
// separator naming the operator. Existing content is never rewritten.
func AppendNote(existing, note, operator string, at time.Time) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	header := fmt.Sprintf("--- %s · %s ---", at.UTC().Format("2006-01-02 15:04 UTC"), operator)
	entry := header + "\n" + note
	if existing == "" {
		return entry
	}
	return existing + "\n\n" + entry
}
