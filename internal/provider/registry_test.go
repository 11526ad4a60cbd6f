package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/versus-cli/pkg/openrouter"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	px := NewPerplexity("perplexity", nil, nil, false)
	or := NewOpenRouter("openrouter", openrouter.NewClient("k"), "m", false, nil)
	reg := NewRegistry(px, or)

	assert.Equal(t, []string{"perplexity", "openrouter"}, reg.Names())
	assert.Equal(t, []string{"openrouter"}, reg.Configured())

	got, ok := reg.Get("openrouter")
	require.True(t, ok)
	assert.Same(t, or, got)

	adapters, err := reg.Resolve([]string{"openrouter", "perplexity"})
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, "openrouter", adapters[0].Name())
	assert.Equal(t, "perplexity", adapters[1].Name())
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewAnthropic(nil, "", nil))
	_, err := reg.Resolve([]string{"anthropic", "bard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "bard"`)
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewPerplexity("perplexity", nil, nil, false))
	replacement := NewPerplexity("perplexity", nil, nil, true)
	reg.Register(replacement)

	assert.Equal(t, []string{"perplexity"}, reg.Names())
	got, _ := reg.Get("perplexity")
	assert.Same(t, replacement, got)
}
