package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Default returns the built-in parameter set
func Default() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		// struct tags are static; a failure here is a programming error
		panic(fmt.Sprintf("strategyconfig: invalid default tags: %v", err))
	}
	return cfg
}

// Load reads the YAML file at path and returns the validated config with raw bytes.
// Fields absent from the file keep their defaults.
// KnownFields(true): a typo in the file fails loudly instead of being ignored.
func Load(path string) (Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, nil, fmt.Errorf("read strategy config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, data, err
	}
	return cfg, data, nil
}

// Parse decodes YAML bytes over the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode strategy config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Hash generates a SHA256 hash from Config (canonical JSON).
// Struct fields marshal in declaration order, so the hash is reproducible.
func Hash(cfg Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
