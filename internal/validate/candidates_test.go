package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/resilience"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestCandidates_DropsInvalidElement(t *testing.T) {
	t.Parallel()

	parsed := decode(t, `[
		{"title":"T","question":"Q","variantA":"A","variantB":"B","category":"films"},
		{"title":""}
	]`)

	records, err := Candidates(parsed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.CandidateRecord{
		Title: "T", Question: "Q", VariantA: "A", VariantB: "B", Category: model.CategoryFilms,
	}, records[0])
}

func TestCandidates_UnknownCategoryFallsBack(t *testing.T) {
	t.Parallel()

	parsed := decode(t, `[{"title":"T","question":"Q","variantA":"A","variantB":"B","category":"not-a-real-category"}]`)

	records, err := Candidates(parsed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.CategoryOther, records[0].Category)
}

func TestCandidates_NoSurvivors(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`[]`,
		`[{"title":"T"}, 42, "x", null]`,
		`[{"title":" ","question":"Q","variantA":"A","variantB":"B","category":"food"}]`,
	} {
		_, err := Candidates(decode(t, raw))
		require.Error(t, err, raw)
		assert.Equal(t, resilience.KindNoValidRecords, resilience.KindOf(err), raw)
	}
}

func TestCandidates_NotAnArray(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{"title":"T"}`, `"text"`, `null`, `3`} {
		_, err := Candidates(decode(t, raw))
		require.Error(t, err, raw)
		assert.Equal(t, resilience.KindInvalidResponse, resilience.KindOf(err), raw)
	}
}

func TestCandidates_Normalization(t *testing.T) {
	t.Parallel()

	parsed := decode(t, `[
		{"title":"  Tabs vs Spaces ","prompt":" Which indent? ","variantA":" Tabs","variantB":"Spaces ","category":" TECHNOLOGY ","sourceUrl":"https://example.com/x"},
		{"title":"Same","question":"Q","variantA":"Cats","variantB":"cats","category":"other"},
		{"title":"Typed","question":"Q","variantA":"A","variantB":"B","category":7},
		{"title":"Url","question":"Q","variantA":"A","variantB":"B","category":"music","sourceUrl":12}
	]`)

	records, err := Candidates(parsed)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Tabs vs Spaces", records[0].Title)
	assert.Equal(t, "Which indent?", records[0].Question)
	assert.Equal(t, "Tabs", records[0].VariantA)
	assert.Equal(t, "Spaces", records[0].VariantB)
	assert.Equal(t, model.CategoryTechnology, records[0].Category)
	assert.Equal(t, "https://example.com/x", records[0].SourceURL)

	assert.Equal(t, "Url", records[1].Title)
	assert.Empty(t, records[1].SourceURL)
}

func TestParseCandidates(t *testing.T) {
	t.Parallel()

	t.Run("fenced bare array", func(t *testing.T) {
		text := "Here are the entries:\n```json\n[{\"title\":\"T\",\"question\":\"Q\",\"variantA\":\"A\",\"variantB\":\"B\",\"category\":\"books\"}]\n```"
		records, err := ParseCandidates(text)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, model.CategoryBooks, records[0].Category)
	})

	t.Run("wrapped array", func(t *testing.T) {
		text := `{"candidates":[{"title":"T","question":"Q","variantA":"A","variantB":"B","category":"games"}]}`
		records, err := ParseCandidates(text)
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("truncated", func(t *testing.T) {
		text := "```json\n[{\"title\":\"T\",\"question\":\"Q\",\"variantA\":\"A\",\"variantB\":\"B\",\"category\":\"games\"},{\"title\":\"U\",\"question\":\"Q\","
		records, err := ParseCandidates(text)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "T", records[0].Title)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseCandidates("I could not find anything, sorry.")
		require.Error(t, err)
		assert.Equal(t, resilience.KindInvalidResponse, resilience.KindOf(err))
	})

	t.Run("object without array", func(t *testing.T) {
		_, err := ParseCandidates(`{"title":"T"}`)
		require.Error(t, err)
		assert.Equal(t, resilience.KindInvalidResponse, resilience.KindOf(err))
	})
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	records := []model.CandidateRecord{
		{Title: "Star Wars vs Star Trek"},
		{Title: "Pokémon Red vs Blue"},
		{Title: "Tabs vs Spaces"},
		{Title: "tabs VS spaces!"},
		{Title: "Cats vs Dogs"},
	}

	out := Dedupe(records, []string{"star wars vs. star trek", "Pokemon red vs blue"})
	require.Len(t, out, 2)
	assert.Equal(t, "Tabs vs Spaces", out[0].Title)
	assert.Equal(t, "Cats vs Dogs", out[1].Title)
}

func TestDedupe_EmptyKeysKept(t *testing.T) {
	t.Parallel()

	records := []model.CandidateRecord{
		{Title: "?!", VariantA: "Yes"},
		{Title: "...", VariantA: "No"},
		{Title: "Tabs vs Spaces"},
	}

	out := Dedupe(records, []string{"!!!"})
	require.Len(t, out, 3)
	assert.Equal(t, "?!", out[0].Title)
	assert.Equal(t, "...", out[1].Title)
}

func TestDedupe_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Dedupe(nil, []string{"x"}))
}
