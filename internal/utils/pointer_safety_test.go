package utils_test

import (
	"testing"
	"time"

	"github.com/sgcombinator/web/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "Ada", utils.Value(utils.Ptr("Ada")))
	require.True(t, utils.Value[time.Time](nil).IsZero())
}
