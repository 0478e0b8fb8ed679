package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("enables a supported framework", func(t *testing.T) {
		t.Cleanup(reset)
		require.NoError(t, Setup(context.Background(), FrameworkOpenAI))
		assert.True(t, Enabled(FrameworkOpenAI))
		assert.False(t, Enabled(FrameworkAnthropic))
	})

	t.Run("rejects an unknown framework", func(t *testing.T) {
		t.Cleanup(reset)
		err := Setup(context.Background(), "mistral")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"mistral"`)
		assert.Contains(t, err.Error(), `"openai"`)
		assert.Contains(t, err.Error(), `"anthropic"`)
		assert.Contains(t, err.Error(), `"langchain"`)
		assert.False(t, Enabled("mistral"))
	})

	t.Run("rejects the empty framework", func(t *testing.T) {
		t.Cleanup(reset)
		assert.Error(t, Setup(context.Background(), ""))
	})

	t.Run("each framework arms independently", func(t *testing.T) {
		t.Cleanup(reset)
		for _, framework := range []string{FrameworkOpenAI, FrameworkAnthropic, FrameworkLangChain} {
			require.NoError(t, Setup(context.Background(), framework))
			assert.True(t, Enabled(framework))
		}
	})
}
