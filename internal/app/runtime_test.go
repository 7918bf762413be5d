package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestModeFollowsEnvironment(t *testing.T) {
	assert.True(t, InTestMode(), "test helper package sets POS_TEST_MODE")

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
}
