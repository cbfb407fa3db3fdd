package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"zenith/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// CategoryFixture is one category entry in a fixtures file.
type CategoryFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Fixtures is the taxonomy every environment starts from.
type Fixtures struct {
	Categories []CategoryFixture `yaml:"categories"`
	Tags       []string          `yaml:"tags"`
}

// DefaultFixtures returns the taxonomy bundled with the binary.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(strings.NewReader(string(defaultFixtures)))
}

// LoadFixturesFile reads fixtures from a YAML file.
func LoadFixturesFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return ParseFixtures(f)
}

// ParseFixtures decodes and normalizes a fixtures document. Tag names are
// lower-cased; blank and repeated entries are dropped.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	var raw Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	out := &Fixtures{}
	seen := map[string]bool{}
	for _, c := range raw.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" || seen["c:"+strings.ToLower(name)] {
			continue
		}
		if len(name) > 50 {
			return nil, fmt.Errorf("category name %q exceeds 50 characters", name)
		}
		seen["c:"+strings.ToLower(name)] = true
		out.Categories = append(out.Categories, CategoryFixture{Name: name, Description: strings.TrimSpace(c.Description)})
	}
	for _, t := range raw.Tags {
		name := strings.ToLower(strings.TrimSpace(t))
		if name == "" || seen["t:"+name] {
			continue
		}
		if len(name) > 50 {
			return nil, fmt.Errorf("tag name %q exceeds 50 characters", name)
		}
		seen["t:"+name] = true
		out.Tags = append(out.Tags, name)
	}
	return out, nil
}

// ApplyFixtures upserts the fixture taxonomy. Existing rows keep their IDs;
// category descriptions are refreshed.
func ApplyFixtures(ctx context.Context, db *gorm.DB, fx *Fixtures) error {
	if fx == nil {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range fx.Categories {
			category := models.Category{Name: c.Name, Description: c.Description}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
			}).Create(&category).Error; err != nil {
				return fmt.Errorf("upsert category %q: %w", c.Name, err)
			}
		}
		for _, name := range fx.Tags {
			tag := models.Tag{Name: name}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&tag).Error; err != nil {
				return fmt.Errorf("upsert tag %q: %w", name, err)
			}
		}
		return nil
	})
}
