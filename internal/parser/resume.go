package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"portfolio-rag/internal/models"
)

// LoadResume reads the CV data file. Files ending in .json are decoded as
// JSON, everything else as YAML.
func LoadResume(path string) (*models.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resume %s: %w", path, err)
	}
	return ParseResume(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// ParseResume decodes raw CV data.
func ParseResume(data []byte, isJSON bool) (*models.Resume, error) {
	var resume models.Resume
	if isJSON {
		if err := json.Unmarshal(data, &resume); err != nil {
			return nil, fmt.Errorf("decode resume json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &resume); err != nil {
		return nil, fmt.Errorf("decode resume yaml: %w", err)
	}
	if strings.TrimSpace(resume.Contact.Name) == "" {
		return nil, fmt.Errorf("resume has no contact name")
	}
	return &resume, nil
}
