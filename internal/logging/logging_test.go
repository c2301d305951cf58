package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/denismitr/keeper/internal/logging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "keeper.log")

	lg, err := logging.New(path, false)
	require.NoError(t, err)

	lg.Debug("hidden")
	lg.Info("application started", zap.String("command", "bank"))
	require.NoError(t, lg.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, "application started", gjson.GetBytes(lines[0], "msg").String())
	assert.Equal(t, "bank", gjson.GetBytes(lines[0], "command").String())
	assert.True(t, gjson.GetBytes(lines[0], "time").Exists())
}

func TestNewVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keeper.log")

	lg, err := logging.New(path, true)
	require.NoError(t, err)

	lg.Debug("shown")
	require.NoError(t, lg.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"shown"`)
}

func TestReporter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var out bytes.Buffer

	r := logging.NewReporter(&out, zap.New(core))
	r.Info("Book %d added to library successfully.", 3)
	r.Warn("Invalid choice, try again.")
	r.Error(errors.Wrap(errors.New("member with this id does not exist"), "borrow"))

	assert.Equal(t, "Book 3 added to library successfully.\nInvalid choice, try again.\nmember with this id does not exist\n", out.String())

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "borrow: member with this id does not exist", entries[2].Message)
}
