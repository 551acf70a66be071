package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitConfiguresLevel(t *testing.T) {
	t.Cleanup(ReplaceGlobal(zap.NewNop()))

	require.NoError(t, Init("debug", "json"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("loud", "console"))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
}

func TestWithModuleAttachesModuleField(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	t.Cleanup(ReplaceGlobal(zap.New(core)))

	WithModule("access").Info("decision", zap.String("tier", "Pro"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "access", entries[0].ContextMap()["module"])
	require.Equal(t, "Pro", entries[0].ContextMap()["tier"])
}

func TestReplaceGlobalRestores(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	restore := ReplaceGlobal(zap.New(core))

	WithModule("quota").Info("counter bumped")
	restore()
	WithModule("quota").Info("dropped")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "counter bumped", entries[0].Message)
}

func TestReplaceGlobalNilUsesNop(t *testing.T) {
	restore := ReplaceGlobal(nil)
	defer restore()

	require.NotNil(t, Logger())
	require.NoError(t, Sync())
}
