// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the completion endpoint credential. The
// primary source is the process environment; a directory of plain-text
// key files (.secrets/) serves as a fallback for local development.
// Each file in the directory represents one secret: the filename is the
// key name and the file contents (trimmed) are the value.
//
// Supported key file: openai-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OpenAIKeyFile is the key-file name for the completion endpoint credential.
const OpenAIKeyFile = "openai-api-key"

// OpenAIKeyEnv is the environment variable for the completion endpoint
// credential. It takes precedence over the key file.
const OpenAIKeyEnv = "OPENAI_API_KEY"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// APIKey resolves the completion endpoint credential: the OPENAI_API_KEY
// environment variable first, then the loaded secrets map. An empty
// result means no credential is configured anywhere; commands that call
// the endpoint treat that as a fatal startup error.
func APIKey(loaded map[string]string) string {
	if v := os.Getenv(OpenAIKeyEnv); v != "" {
		return v
	}
	return loaded[OpenAIKeyFile]
}
