package academy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgcombinator/web/academy"
)

func TestRelevantAdvice(t *testing.T) {
	t.Run("matches case-insensitively", func(t *testing.T) {
		advice := academy.RelevantAdvice("TALK TO USERS")
		require.Len(t, advice, 1)
		require.Contains(t, advice[0], "YC Advice #7")
	})

	t.Run("several matches", func(t *testing.T) {
		advice := academy.RelevantAdvice("scale")
		require.Greater(t, len(advice), 1)
		for _, a := range advice {
			require.Contains(t, a, "cal")
		}
	})

	t.Run("no match falls back to the first lessons", func(t *testing.T) {
		advice := academy.RelevantAdvice("how do I raise a series B from sovereign funds?")
		require.Equal(t, academy.CourseAdvice[:3], advice)

		// the fallback is a copy
		advice[0] = "changed"
		require.NotEqual(t, "changed", academy.CourseAdvice[0])
	})
}

func TestSystemPrompt(t *testing.T) {
	prompt := academy.SystemPrompt([]string{"lesson one", "lesson two"})
	require.Contains(t, prompt, "Y Combinator")
	require.Contains(t, prompt, "lesson one\n\nlesson two")
	require.Contains(t, prompt, "under 3 paragraphs")
}
