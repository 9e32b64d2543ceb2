package config

import (
	"errors"
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownEncoding is returned by Encode for an unsupported format.
var ErrUnknownEncoding = errors.New("unknown config encoding")

// Encodings lists the formats accepted by Encode.
var Encodings = []string{"yaml", "toml"}

// Encode renders cfg in the named format ("yaml" or "toml").
func Encode(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return yaml.Marshal(cfg)
	case "toml":
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownEncoding, format, strings.Join(Encodings, ", "))
	}
}
