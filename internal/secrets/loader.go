package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no source yields a usable secret.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes where a secret may come from. Sources are tried in order:
// File, FileEnv, Value, Env. The first non-empty one wins.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// File points to a file containing the secret value.
	File string
	// FileEnv names an environment variable holding a path to the secret file.
	FileEnv string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// Env names an environment variable holding the secret itself.
	Env string
}

// Load returns the trimmed secret value resolved from src.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file == "" && src.FileEnv != "" {
		file = strings.TrimSpace(os.Getenv(src.FileEnv))
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty: %w", name, file, ErrNotConfigured)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if src.Env != "" {
		if secret := strings.TrimSpace(os.Getenv(src.Env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
}
