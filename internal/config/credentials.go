package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	fileScheme = "file://"
	envScheme  = "env://"
)

// ErrInvalidCredentialsSource is returned when a source is neither file:// nor env://.
var ErrInvalidCredentialsSource = errors.New("invalid credentials source, `file://` or `env://` not found")

// ReadCredentials returns the raw credentials document referenced by source.
// file://<path> reads the file; env://<VAR> reads the document stored in the variable.
func ReadCredentials(source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, fileScheme):
		path := strings.TrimPrefix(source, fileScheme)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials file %q: %w", path, err)
		}
		return b, nil
	case strings.HasPrefix(source, envScheme):
		name := strings.TrimPrefix(source, envScheme)
		val, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(val) == "" {
			return nil, fmt.Errorf("credentials variable %q is empty or unset", name)
		}
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCredentialsSource, source)
	}
}
