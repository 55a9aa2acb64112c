package assessment

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000", "2006-01-02T15:04:05", "2006-01-02"}

// maxCount bounds a single keyword count, keeping sums over a child's history far from overflow.
const maxCount = 1_000_000_000

// Count is a keyword count. Anything that is not a number (or a numeric string) decodes to 0.
// Negative counts decode to 0 and huge ones are capped at maxCount.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	f := math.Round(tolerantNumber(data))
	switch {
	case f < 0:
		f = 0
	case f > maxCount:
		f = maxCount
	}
	*c = Count(f)
	return nil
}

// Score is a language score. Anything that is not a number (or a numeric string) decodes to 0.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score(tolerantNumber(data))
	return nil
}

func tolerantNumber(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		data = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// tolerantString reads JSON strings, numbers and Mongo `{"$oid": ...}` objects as text.
// Anything else reads as "".
func tolerantString(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	case '{':
		var oid struct {
			OID json.RawMessage `json:"$oid"`
		}
		if err := json.Unmarshal(data, &oid); err == nil && len(oid.OID) > 0 && oid.OID[0] != '{' {
			return tolerantString(oid.OID)
		}
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err == nil {
			return string(data)
		}
	}
	return ""
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// Date is an assessment date. Malformed or missing dates decode to the zero Date ("no date").
type Date struct {
	time.Time
}

func (d Date) Valid() bool { return !d.IsZero() }

func (d *Date) UnmarshalJSON(data []byte) error {
	d.Time = time.Time{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

type KeywordCounts struct {
	Science    Count `json:"science"`
	Social     Count `json:"social"`
	Literature Count `json:"literature"`
	Language   Count `json:"language"`
}

// UnmarshalJSON reads anything but an object as zero counts.
func (k *KeywordCounts) UnmarshalJSON(data []byte) error {
	*k = KeywordCounts{}
	if !isObject(data) {
		return nil
	}
	type alias KeywordCounts
	var v alias
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*k = KeywordCounts(v)
	return nil
}

// Assessment is a scored transcript. It is never modified once received.
type Assessment struct {
	ID                  string         `json:"id,omitempty"`
	ChildID             string         `json:"childId,omitempty"`
	Date                Date           `json:"date"`
	Transcript          string         `json:"transcript,omitempty"`
	KeywordCounts       *KeywordCounts `json:"keywordCounts,omitempty"`
	ScienceTalk         Score          `json:"scienceTalk"`
	SocialTalk          Score          `json:"socialTalk"`
	LiteratureTalk      Score          `json:"literatureTalk"`
	LanguageDevelopment Score          `json:"languageDevelopment"`
	UploadedBy          string         `json:"uploadedBy,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON only fails when data is not an object. Identifiers and text fields of any other
// shape read as "", and keywordCounts that is not an object reads as nil.
func (a *Assessment) UnmarshalJSON(data []byte) error {
	type alias Assessment
	var v struct {
		alias
		ID            json.RawMessage `json:"id"`
		ObjectID      json.RawMessage `json:"_id"`
		ChildID       json.RawMessage `json:"childId"`
		Transcript    json.RawMessage `json:"transcript"`
		UploadedBy    json.RawMessage `json:"uploadedBy"`
		KeywordCounts json.RawMessage `json:"keywordCounts"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Assessment(v.alias)
	a.ID = tolerantString(v.ID)
	if a.ID == "" {
		a.ID = tolerantString(v.ObjectID)
	}
	a.ChildID = tolerantString(v.ChildID)
	a.Transcript = tolerantString(v.Transcript)
	a.UploadedBy = tolerantString(v.UploadedBy)
	if isObject(v.KeywordCounts) {
		a.KeywordCounts = new(KeywordCounts)
		_ = a.KeywordCounts.UnmarshalJSON(v.KeywordCounts)
	}
	a.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw is the assessment exactly as the backend sent it; accepting it sends it back untouched.
func (a Assessment) Raw() json.RawMessage {
	if len(a.raw) > 0 {
		return a.raw
	}
	data, _ := json.Marshal(a)
	return data
}

// LanguageData are the four scores of a single assessment.
type LanguageData struct {
	ScienceTalk         Score `json:"scienceTalk"`
	SocialTalk          Score `json:"socialTalk"`
	LiteratureTalk      Score `json:"literatureTalk"`
	LanguageDevelopment Score `json:"languageDevelopment"`
}

// LanguageDataOf returns the scores of the latest assessment, nil when there is none.
func LanguageDataOf(latest *Assessment) *LanguageData {
	if latest == nil {
		return nil
	}
	return &LanguageData{
		ScienceTalk:         latest.ScienceTalk,
		SocialTalk:          latest.SocialTalk,
		LiteratureTalk:      latest.LiteratureTalk,
		LanguageDevelopment: latest.LanguageDevelopment,
	}
}
