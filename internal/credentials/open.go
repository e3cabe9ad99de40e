package credentials

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/janekbaraniewski/tokencat/internal/config"
)

// Open picks the store for a configured source. The returned watch path
// is the file to observe for external rewrites, or "" when the store is
// not file-backed.
func Open(source, filePath string, logger *zap.Logger) (Store, string, error) {
	if filePath == "" {
		filePath = DefaultFilePath()
	}

	switch source {
	case config.SourceKeychain:
		return NewKeychainStore(logger), "", nil
	case config.SourceKeyring:
		return NewKeyringStore(logger), "", nil
	case config.SourceFile:
		return NewFileStore(filePath, logger), filePath, nil
	case config.SourceAuto, "":
		if runtime.GOOS == "darwin" {
			return NewKeychainStore(logger), "", nil
		}
		if _, err := os.Stat(filePath); err == nil {
			return NewFileStore(filePath, logger), filePath, nil
		}
		return NewKeyringStore(logger), "", nil
	default:
		return nil, "", fmt.Errorf("unknown credential source %q", source)
	}
}
