package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/routing"
)

type routingFile struct {
	Groups map[string][]string `yaml:"groups"`
}

// LoadRoutingTable reads the HR location groups from path. A missing file
// yields an empty table so every location only services itself.
func LoadRoutingTable(path string) (*routing.Table, error) {
	if path == "" {
		return routing.NewTable(nil), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Routing table not found, HR groups fall back to single locations", "path", path)
			return routing.NewTable(nil), nil
		}
		return nil, fmt.Errorf("read routing table: %w", err)
	}

	return ParseRoutingTable(raw)
}

// ParseRoutingTable decodes a routing table document
func ParseRoutingTable(raw []byte) (*routing.Table, error) {
	var file routingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}
	for location := range file.Groups {
		if location == "" {
			return nil, fmt.Errorf("parse routing table: empty location key")
		}
	}
	return routing.NewTable(file.Groups), nil
}
