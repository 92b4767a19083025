package store

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"taskdash/internal/models"
)

//go:embed seed.json
var embeddedSeed []byte

// DefaultSeed returns the bundled demo fixture, ordered id DESC as exported.
func DefaultSeed() []models.TaskRecord {
	records, err := decodeSeed(embeddedSeed, ".json")
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return records
}

// LoadSeedFile reads a seed written by `seed export`. Files ending in .yaml
// or .yml are decoded as YAML, anything else as JSON.
func LoadSeedFile(path string) ([]models.TaskRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	records, err := decodeSeed(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return records, nil
}

func decodeSeed(data []byte, ext string) ([]models.TaskRecord, error) {
	var records []models.TaskRecord
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	}
	if records == nil {
		records = []models.TaskRecord{}
	}
	return records, nil
}

func cloneRecords(in []models.TaskRecord) []models.TaskRecord {
	out := make([]models.TaskRecord, len(in))
	for i, rec := range in {
		out[i] = rec.Clone()
	}
	return out
}
