package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	t.Run("production logs json at info", func(t *testing.T) {
		var buf bytes.Buffer
		l := setup(&buf, false)

		l.Debug().Msg("hidden")
		require.Empty(t, buf.String())

		l.Info().Str("path", "/academy").Msg("request")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, "request", entry["message"])
		require.Equal(t, "/academy", entry["path"])
		require.Contains(t, entry, "time")
		require.Contains(t, entry, "caller")
	})

	t.Run("dev logs to the console at debug", func(t *testing.T) {
		var buf bytes.Buffer
		setup(&buf, true)

		log.Debug().Msg("visible")
		require.Contains(t, buf.String(), "visible")
		require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})
}
