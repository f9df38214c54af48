package scoring

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultCatalog returns the global rules shipped with the binary.
func DefaultCatalog() ([]Rule, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

type catalogFile struct {
	Rules []catalogRule `yaml:"rules"`
}

type catalogRule struct {
	ID          string `yaml:"id"`
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	Points      int    `yaml:"points"`
	Category    string `yaml:"category"`
}

// LoadCatalog parses the global scoring rules document. Rule codes are
// upper-cased and the elimination flag is derived from the code.
func LoadCatalog(r io.Reader) ([]Rule, error) {
	var file catalogFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode scoring catalog: %w", err)
	}

	out := make([]Rule, 0, len(file.Rules))
	seen := make(map[string]struct{}, len(file.Rules))
	for i, item := range file.Rules {
		id := strings.TrimSpace(item.ID)
		code := strings.ToUpper(strings.TrimSpace(item.Code))
		if id == "" || code == "" {
			return nil, fmt.Errorf("scoring catalog rule %d: id and code are required", i)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("scoring catalog rule %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}

		out = append(out, Rule{
			ID:          id,
			Code:        code,
			Description: strings.TrimSpace(item.Description),
			Points:      item.Points,
			Category:    strings.TrimSpace(item.Category),
			Elimination: IsEliminationCode(code),
		})
	}
	return out, nil
}
