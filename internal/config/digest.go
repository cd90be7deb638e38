package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Digest returns a short hex digest of the config file's raw bytes. It lets
// operators confirm which configuration a running daemon was started with.
func Digest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12], nil
}
