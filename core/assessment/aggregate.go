package assessment

import "time"

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthBucket holds the keyword counts of every assessment recorded during a calendar month.
type MonthBucket struct {
	Month      string `json:"month"`
	Science    int    `json:"science"`
	Social     int    `json:"social"`
	Literature int    `json:"literature"`
	Language   int    `json:"language"`
}

// Totals are the keyword counts summed over all assessments.
type Totals struct {
	ScienceTalk         int `json:"scienceTalk"`
	SocialTalk          int `json:"socialTalk"`
	LiteratureTalk      int `json:"literatureTalk"`
	LanguageDevelopment int `json:"languageDevelopment"`
}

func (t Totals) Max() int {
	m := t.ScienceTalk
	for _, v := range []int{t.SocialTalk, t.LiteratureTalk, t.LanguageDevelopment} {
		if v > m {
			m = v
		}
	}
	return m
}

const (
	minCeiling  = 200
	ceilingStep = 50
)

// MonthlyKeywordCounts buckets keyword counts by calendar month (UTC), Jan through Dec.
// Years are not distinguished. Assessments without a date or without keyword counts are skipped.
func MonthlyKeywordCounts(assessments []Assessment) [12]MonthBucket {
	var buckets [12]MonthBucket
	for i, name := range monthNames {
		buckets[i].Month = name
	}
	for _, a := range assessments {
		if !a.Date.Valid() || a.KeywordCounts == nil {
			continue
		}
		b := &buckets[a.Date.UTC().Month()-time.January]
		b.Science += int(a.KeywordCounts.Science)
		b.Social += int(a.KeywordCounts.Social)
		b.Literature += int(a.KeywordCounts.Literature)
		b.Language += int(a.KeywordCounts.Language)
	}
	return buckets
}

// TotalKeywordCounts sums keyword counts over every assessment that has them, dated or not.
func TotalKeywordCounts(assessments []Assessment) Totals {
	var t Totals
	for _, a := range assessments {
		if a.KeywordCounts == nil {
			continue
		}
		t.ScienceTalk += int(a.KeywordCounts.Science)
		t.SocialTalk += int(a.KeywordCounts.Social)
		t.LiteratureTalk += int(a.KeywordCounts.Literature)
		t.LanguageDevelopment += int(a.KeywordCounts.Language)
	}
	return t
}

// DisplayCeiling is the gauge maximum: the largest total rounded up to a multiple of 50, at least 200.
func DisplayCeiling(t Totals) int {
	m := t.Max()
	ceil := ((m + ceilingStep - 1) / ceilingStep) * ceilingStep
	if m <= 0 {
		ceil = 0
	}
	if ceil < minCeiling {
		return minCeiling
	}
	return ceil
}
