package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pokemon", Fold("Pokémon"))
	assert.Equal(t, "creme brulee", Fold("Crème Brûlée"))
	assert.Equal(t, "", Fold(""))
}

func TestWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"pineapple", "pizza"}, Words("Pineapple on pizza?!", 2))
	assert.Equal(t, []string{"cafe", "debate"}, Words("Café: a 2024 debate", 2))
	assert.Empty(t, Words("a an of 42", 2))
}

func TestWordSet(t *testing.T) {
	t.Parallel()

	set := WordSet("foo bar foo", 2)
	assert.Len(t, set, 2)
	assert.Contains(t, set, "foo")
	assert.Contains(t, set, "bar")
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "star wars vs star trek", Key("  Star Wars vs. Star-Trek! "))
	assert.Equal(t, Key("Pokémon Red vs Blue"), Key("pokemon red VS blue"))
	assert.Equal(t, "1984 vs brave new world", Key("1984 vs Brave New World"))
}
