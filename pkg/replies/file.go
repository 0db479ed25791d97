package replies

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/random"
)

// fileCatalog is the YAML shape of one surface entry:
//
//	assistant:
//	  replies: ["..."]
//	  cost: {min: 50, max: 149}   # or
//	  flat: [10, 20]
type fileCatalog struct {
	Replies []string `yaml:"replies"`
	Cost    *struct {
		Min int `yaml:"min"`
		Max int `yaml:"max"`
	} `yaml:"cost"`
	Flat []int `yaml:"flat"`
}

type fileDoc struct {
	Surfaces map[string]fileCatalog `yaml:"surfaces"`
}

// Parse decodes a YAML catalog document.
func Parse(b []byte) (map[model.Surface]Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	out := make(map[model.Surface]Catalog, len(doc.Surfaces))
	for name, fc := range doc.Surfaces {
		surface, ok := model.ParseSurface(name)
		if !ok {
			return nil, &model.ConfigurationError{
				Component: "replies",
				Reason:    fmt.Sprintf("unknown surface %q", name),
			}
		}
		if fc.Cost != nil && len(fc.Flat) > 0 {
			return nil, &model.ConfigurationError{
				Component: "replies",
				Reason:    fmt.Sprintf("surface %q sets both cost and flat", name),
			}
		}
		c := Catalog{Replies: fc.Replies, Cost: NoCost{}}
		switch {
		case fc.Cost != nil:
			c.Cost = RangeCost{Min: fc.Cost.Min, Max: fc.Cost.Max}
		case len(fc.Flat) > 0:
			c.Cost = FlatCost{Values: fc.Flat}
		}
		out[surface] = c
	}
	return out, nil
}

// LoadFile reads a YAML catalog and builds a Library from it.
func LoadFile(path string, rnd random.Source) (*Library, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog file not found: %s", path)
		}
		return nil, err
	}
	catalogs, err := Parse(b)
	if err != nil {
		return nil, err
	}
	return New(rnd, catalogs)
}
