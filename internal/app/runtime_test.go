package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefreshTestModeRereadsEnvironment(t *testing.T) {
	t.Setenv("STRUCTURA_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("STRUCTURA_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
