package logging_test

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietrack/config"
	"movietrack/internal/logging"
)

func TestSetupWithoutFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	closer, err := logging.Setup(afero.NewMemMapFs(), config.LogSettings{})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}

func TestSetupWritesRotatedFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "logs", "movietrack.log")
	closer, err := logging.Setup(afero.NewOsFs(), config.LogSettings{File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	log.Printf("[test] hello from the logger")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[test] hello from the logger"))
}

func TestSetupFailsWhenDirectoryCannotBeCreated(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	_, err := logging.Setup(fsys, config.LogSettings{File: "/var/log/movietrack/app.log"})
	assert.Error(t, err)
}
