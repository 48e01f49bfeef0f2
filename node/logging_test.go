package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "WARN", " error "} {
		l, err := NewLogger(lvl)
		require.NoError(t, err, lvl)
		require.NotNil(t, l)
	}
	_, err := NewLogger("verbose")
	require.Error(t, err)
}
