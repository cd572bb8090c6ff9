package application

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// maxRecordBytes bounds one JSONL line.
const maxRecordBytes = 16 << 20

// yamlDataset is the YAML dataset layout: records listed under items.
type yamlDataset struct {
	Items []domain.DatasetRecord `yaml:"items"`
}

// IsYAMLPath reports whether path names a YAML document.
func IsYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadDataset reads the dataset at path through src. A .yaml or .yml file
// holds its records under items; anything else is read as JSON Lines.
func LoadDataset(ctx context.Context, src ports.PoseSource, path string) ([]domain.DatasetRecord, error) {
	rc, err := src.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer rc.Close()

	if IsYAMLPath(path) {
		return DecodeYAMLDataset(rc)
	}
	return DecodeJSONLDataset(rc)
}

// DecodeYAMLDataset decodes a YAML dataset document.
func DecodeYAMLDataset(r io.Reader) ([]domain.DatasetRecord, error) {
	var ds yamlDataset
	if err := yaml.NewDecoder(r).Decode(&ds); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: dataset: %v", domain.ErrInvalidConfiguration, err)
	}
	for i, rec := range ds.Items {
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: dataset item %d has no id", domain.ErrInvalidConfiguration, i)
		}
	}
	return ds.Items, nil
}

// DecodeJSONLDataset decodes one record per non-blank line.
func DecodeJSONLDataset(r io.Reader) ([]domain.DatasetRecord, error) {
	var out []domain.DatasetRecord
	err := scanJSONL(r, func(line int, data []byte) error {
		var rec domain.DatasetRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("%w: dataset line %d: %v", domain.ErrInvalidConfiguration, line, err)
		}
		if rec.ID == "" {
			return fmt.Errorf("%w: dataset line %d has no id", domain.ErrInvalidConfiguration, line)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// DecodePredictions decodes prediction sets written by the score command.
func DecodePredictions(r io.Reader) ([]domain.PredictionSet, error) {
	var out []domain.PredictionSet
	err := scanJSONL(r, func(line int, data []byte) error {
		var set domain.PredictionSet
		if err := json.Unmarshal(data, &set); err != nil {
			return fmt.Errorf("%w: predictions line %d: %v", domain.ErrInvalidConfiguration, line, err)
		}
		out = append(out, set)
		return nil
	})
	return out, err
}

// LoadPredictions reads the predictions file at path through src.
func LoadPredictions(ctx context.Context, src ports.PoseSource, path string) ([]domain.PredictionSet, error) {
	rc, err := src.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open predictions %s: %w", path, err)
	}
	defer rc.Close()
	return DecodePredictions(rc)
}

func scanJSONL(r io.Reader, fn func(line int, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := fn(line, data); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", line+1, err)
	}
	return nil
}
