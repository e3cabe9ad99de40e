package credentials

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janekbaraniewski/tokencat/internal/config"
)

func TestOpen_ExplicitSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".credentials.json")

	store, watch, err := Open(config.SourceFile, path, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.Equal(t, path, watch)

	store, watch, err = Open(config.SourceKeyring, path, nil)
	require.NoError(t, err)
	assert.IsType(t, &KeychainStore{}, store)
	assert.Empty(t, watch)

	_, _, err = Open("vault", path, nil)
	assert.Error(t, err)
}

func TestOpen_AutoPrefersExistingFileOffDarwin(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("auto always uses the Keychain on macOS")
	}
	path := filepath.Join(t.TempDir(), ".credentials.json")

	store, _, err := Open(config.SourceAuto, path, nil)
	require.NoError(t, err)
	assert.IsType(t, &KeychainStore{}, store)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	store, watch, err := Open(config.SourceAuto, path, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.Equal(t, path, watch)
}
