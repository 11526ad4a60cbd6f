package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"science", CategoryScience},
		{"  Films ", CategoryFilms},
		{"TELEVISION", CategoryTelevision},
		{"other", CategoryOther},
		{"cooking", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCategory(tt.raw), tt.raw)
	}
}

func TestCategoryNames(t *testing.T) {
	names := CategoryNames()
	assert.Len(t, names, len(Categories))
	assert.Equal(t, "science", names[0])
	assert.Equal(t, "other", names[len(names)-1])
}

func TestEnrichmentRecord_Sections(t *testing.T) {
	var r EnrichmentRecord
	assert.True(t, r.Empty())

	r.Set(SectionHistory, "Started in 1976.")
	r.Set(Section("unknown"), "ignored")

	assert.False(t, r.Empty())
	assert.Equal(t, "Started in 1976.", r.History)
	assert.Equal(t, "Started in 1976.", r.Get(SectionHistory))
	assert.Empty(t, r.Get(Section("unknown")))

	for _, s := range Sections {
		r.Set(s, string(s))
	}
	assert.Equal(t, "counterEvidence", r.CounterEvidence)
	assert.Equal(t, "currentState", r.Get(SectionCurrentState))
}
