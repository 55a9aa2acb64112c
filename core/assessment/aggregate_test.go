package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func dated(y int, m time.Month, d int, kc *KeywordCounts) Assessment {
	return Assessment{Date: Date{time.Date(y, m, d, 12, 0, 0, 0, time.UTC)}, KeywordCounts: kc}
}

func TestMonthlyKeywordCounts(t *testing.T) {
	assessments := []Assessment{
		dated(2024, time.January, 3, &KeywordCounts{Science: 5, Social: 1}),
		// years are merged
		dated(2025, time.January, 20, &KeywordCounts{Science: 10, Language: 2}),
		dated(2024, time.March, 9, &KeywordCounts{Science: 7, Literature: 4}),
		// skipped: no counts, no date
		dated(2024, time.May, 1, nil),
		{KeywordCounts: &KeywordCounts{Science: 99}},
	}

	got := MonthlyKeywordCounts(assessments)

	assert.Equal(t, MonthBucket{Month: "Jan", Science: 15, Social: 1, Language: 2}, got[0])
	assert.Equal(t, MonthBucket{Month: "Mar", Science: 7, Literature: 4}, got[2])
	for i, b := range got {
		if i == 0 || i == 2 {
			continue
		}
		assert.Equal(t, MonthBucket{Month: monthNames[i]}, b, monthNames[i])
	}
}

func TestMonthlyKeywordCounts_utc(t *testing.T) {
	east := time.FixedZone("UTC+3", 3*60*60)
	// Feb 1st 01:00 at UTC+3 is still Jan 31st in UTC
	a := Assessment{Date: Date{time.Date(2024, time.February, 1, 1, 0, 0, 0, east)}, KeywordCounts: &KeywordCounts{Social: 3}}
	got := MonthlyKeywordCounts([]Assessment{a})
	assert.Equal(t, 3, got[0].Social)
	assert.Equal(t, 0, got[1].Social)
}

func TestMonthlyKeywordCounts_empty(t *testing.T) {
	got := MonthlyKeywordCounts(nil)
	assert.Len(t, got, 12)
	assert.Equal(t, "Dec", got[11].Month)
	assert.Equal(t, MonthBucket{Month: "Jun"}, got[5])
}

func TestTotalKeywordCounts(t *testing.T) {
	assessments := []Assessment{
		dated(2024, time.January, 3, &KeywordCounts{Science: 5, Social: 1, Literature: 2, Language: 3}),
		{KeywordCounts: &KeywordCounts{Science: 10, Language: 7}},
		dated(2024, time.March, 9, nil),
	}
	assert.Equal(t, Totals{ScienceTalk: 15, SocialTalk: 1, LiteratureTalk: 2, LanguageDevelopment: 10}, TotalKeywordCounts(assessments))
	assert.Equal(t, Totals{}, TotalKeywordCounts(nil))
}

func TestDisplayCeiling(t *testing.T) {
	tests := []struct {
		name   string
		totals Totals
		want   int
	}{
		{name: "all zero", totals: Totals{}, want: 200},
		{name: "below floor", totals: Totals{SocialTalk: 120}, want: 200},
		{name: "exactly floor", totals: Totals{SocialTalk: 200}, want: 200},
		{name: "230", totals: Totals{ScienceTalk: 230, SocialTalk: 10}, want: 250},
		{name: "250", totals: Totals{LiteratureTalk: 250}, want: 250},
		{name: "251", totals: Totals{LanguageDevelopment: 251}, want: 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayCeiling(tt.totals))
		})
	}
}
