package assessment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessment_UnmarshalJSON(t *testing.T) {
	data := `{
		"_id": "a1",
		"childId": "c1",
		"date": "2024-03-09T10:00:00.000Z",
		"transcript": "the sun is hot",
		"keywordCounts": {"science": 4, "social": "2", "literature": null, "language": "lots"},
		"scienceTalk": 71.5,
		"socialTalk": "12",
		"literatureTalk": {},
		"uploadedBy": "Tess",
		"extra": true
	}`

	var a Assessment
	require.NoError(t, json.Unmarshal([]byte(data), &a))

	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "c1", a.ChildID)
	assert.True(t, a.Date.Valid())
	assert.Equal(t, time.March, a.Date.Month())
	assert.Equal(t, &KeywordCounts{Science: 4, Social: 2}, a.KeywordCounts)
	assert.Equal(t, Score(71.5), a.ScienceTalk)
	assert.Equal(t, Score(12), a.SocialTalk)
	assert.Equal(t, Score(0), a.LiteratureTalk)
	assert.Equal(t, Score(0), a.LanguageDevelopment)
	assert.JSONEq(t, data, string(a.Raw()))
}

func TestDate_tolerant(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{in: `"2024-01-31"`, valid: true},
		{in: `"2024-01-31T23:59:59Z"`, valid: true},
		{in: `"2024-01-31T23:59:59.123+02:00"`, valid: true},
		{in: `"yesterday"`},
		{in: `""`},
		{in: `null`},
		{in: `12345`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Date
			assert.NoError(t, json.Unmarshal([]byte(tt.in), &d))
			assert.Equal(t, tt.valid, d.Valid())
		})
	}
}

func TestAssessment_Raw_marshalled(t *testing.T) {
	a := Assessment{ChildID: "c1", Transcript: "hi"}
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(a.Raw(), &m))
	assert.Equal(t, "c1", m["childId"])
	assert.Nil(t, m["date"])
}

func TestLanguageDataOf(t *testing.T) {
	assert.Nil(t, LanguageDataOf(nil))
	assert.Equal(t,
		&LanguageData{ScienceTalk: 1, SocialTalk: 2, LiteratureTalk: 3, LanguageDevelopment: 4},
		LanguageDataOf(&Assessment{ScienceTalk: 1, SocialTalk: 2, LiteratureTalk: 3, LanguageDevelopment: 4}),
	)
}

func TestAssessment_UnmarshalJSON_malformed(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantID     string
		wantCounts *KeywordCounts
	}{
		{
			name:   "counts as a string",
			data:   `{"id":"a1","keywordCounts":"n/a"}`,
			wantID: "a1",
		},
		{
			name:   "counts as an array",
			data:   `{"id":"a1","keywordCounts":[1,2,3]}`,
			wantID: "a1",
		},
		{
			name:       "mongo object id",
			data:       `{"_id":{"$oid":"65f0c0ffee"},"keywordCounts":{"science":5}}`,
			wantID:     "65f0c0ffee",
			wantCounts: &KeywordCounts{Science: 5},
		},
		{
			name:   "numeric id",
			data:   `{"id":42}`,
			wantID: "42",
		},
		{
			name: "unreadable fields",
			data: `{"_id":[1],"childId":{"x":1},"uploadedBy":true}`,
		},
		{
			name:       "huge and negative counts",
			data:       `{"keywordCounts":{"science":1e300,"social":-4,"literature":"NaN","language":"Infinity"}}`,
			wantCounts: &KeywordCounts{Science: maxCount},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Assessment
			require.NoError(t, json.Unmarshal([]byte(tt.data), &a))
			assert.Equal(t, tt.wantID, a.ID)
			assert.Equal(t, tt.wantCounts, a.KeywordCounts)
			assert.Empty(t, a.ChildID)
			assert.Empty(t, a.UploadedBy)
		})
	}
}

func TestAssessment_UnmarshalJSON_notAnObject(t *testing.T) {
	var a Assessment
	assert.Error(t, json.Unmarshal([]byte(`"oops"`), &a))
}

func TestKeywordCounts_UnmarshalJSON(t *testing.T) {
	var k KeywordCounts
	require.NoError(t, json.Unmarshal([]byte(`{"science":"7","language":2.6}`), &k))
	assert.Equal(t, KeywordCounts{Science: 7, Language: 3}, k)

	require.NoError(t, json.Unmarshal([]byte(`"lots"`), &k))
	assert.Equal(t, KeywordCounts{}, k)
}

func TestMonthlyKeywordCounts_cappedCounts(t *testing.T) {
	var all []Assessment
	require.NoError(t, json.Unmarshal([]byte(`[
		{"date":"2024-01-10","keywordCounts":{"science":1e300}},
		{"date":"2024-01-11","keywordCounts":{"science":5}}
	]`), &all))

	buckets := MonthlyKeywordCounts(all)
	assert.Equal(t, maxCount+5, buckets[0].Science)
	assert.Equal(t, maxCount+5, TotalKeywordCounts(all).ScienceTalk)
}
