package assessment

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const transcriptDateLayout = "January 2, 2006 at 03:04 PM"

// TranscriptEntry is an accepted transcript as listed in a child's history.
type TranscriptEntry struct {
	ID            string         `json:"id,omitempty"`
	Date          Date           `json:"date"`
	UploadedBy    string         `json:"uploadedBy,omitempty"`
	Transcript    string         `json:"transcript"`
	Characters    int            `json:"characters"`
	Words         int            `json:"words"`
	KeywordCounts *KeywordCounts `json:"keywordCounts,omitempty"`
}

// Heading is the line introducing the transcript in the combined download.
func (e TranscriptEntry) Heading() string {
	if !e.Date.Valid() {
		return "=== Transcript from an unknown date ==="
	}
	return "=== Transcript from " + e.Date.UTC().Format(transcriptDateLayout) + " ==="
}

// Transcripts lists the assessments carrying a non-blank transcript, newest first.
// Undated ones come last, in their original order.
func Transcripts(assessments []Assessment) []TranscriptEntry {
	entries := make([]TranscriptEntry, 0)
	for _, a := range assessments {
		if strings.TrimSpace(a.Transcript) == "" {
			continue
		}
		entries = append(entries, TranscriptEntry{
			ID:            a.ID,
			Date:          a.Date,
			UploadedBy:    a.UploadedBy,
			Transcript:    a.Transcript,
			Characters:    utf8.RuneCountInString(a.Transcript),
			Words:         len(strings.Fields(a.Transcript)),
			KeywordCounts: a.KeywordCounts,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Date, entries[j].Date
		if !dj.Valid() {
			return di.Valid()
		}
		return di.Valid() && di.After(dj.Time)
	})
	return entries
}

// TranscriptsText combines the entries into a single plain-text document.
func TranscriptsText(entries []TranscriptEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		b.WriteString(e.Heading())
		b.WriteString("\n")
		if e.UploadedBy != "" {
			fmt.Fprintf(&b, "Uploaded by: %s\n", e.UploadedBy)
		}
		b.WriteString(e.Transcript)
		b.WriteString("\n\n")
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

// TranscriptsFileName names the combined download of a child's transcripts, e.g.
// "Ada_Lovelace_all_transcripts_2024-06-15.txt".
func TranscriptsFileName(childName string, now time.Time) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		}
		return -1
	}, strings.TrimSpace(childName))
	if name == "" {
		name = "child"
	}
	return fmt.Sprintf("%s_all_transcripts_%s.txt", name, now.Format("2006-01-02"))
}
