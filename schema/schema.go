package schema

import (
	"errors"
	"fmt"
)

// ============================================================================
// SCHEMA — Describes the shape of the observation dataset
// ============================================================================
// The parser uses it to keep declared dimensions as text.
// The cleaner uses it to find the entity column, the date column and its
// layouts, and the measures to zero-fill.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`
}

// DimensionMeta describes a text column.
type DimensionMeta struct {
	Key         string `json:"key" yaml:"key"`
	DisplayName string `json:"displayName" yaml:"display_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	IsEntity   bool `json:"isEntity,omitempty" yaml:"is_entity,omitempty"`
	IsTemporal bool `json:"isTemporal,omitempty" yaml:"is_temporal,omitempty"`
	// Go time layouts tried in order when parsing a temporal dimension.
	TemporalFormats []string `json:"temporalFormats,omitempty" yaml:"temporal_formats,omitempty"`
}

// MeasureMeta describes a designated numeric column.
// Every measure listed here is zero-filled by the cleaner.
type MeasureMeta struct {
	Key         string `json:"key" yaml:"key"`
	DisplayName string `json:"displayName" yaml:"display_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"` // "people", "doses"
}

// DefaultDimension creates a plain text DimensionMeta.
func DefaultDimension(key, displayName string) DimensionMeta {
	return DimensionMeta{Key: key, DisplayName: displayName}
}

// DefaultMeasure creates a MeasureMeta.
func DefaultMeasure(key, displayName, unit string) MeasureMeta {
	return MeasureMeta{Key: key, DisplayName: displayName, Unit: unit}
}

// OWID returns the schema of the Our World in Data COVID-19 dataset.
func OWID() Config {
	return Config{
		Name:        "owid-covid-data",
		Description: "Our World in Data COVID-19 daily observations per location",
		Dimensions: []DimensionMeta{
			DefaultDimension("iso_code", "ISO Code"),
			DefaultDimension("continent", "Continent"),
			{Key: "location", DisplayName: "Location", IsEntity: true},
			{Key: "date", DisplayName: "Date", IsTemporal: true, TemporalFormats: []string{"2006-01-02"}},
			DefaultDimension("tests_units", "Tests Units"),
		},
		Measures: []MeasureMeta{
			DefaultMeasure("total_cases", "Total Cases", "people"),
			DefaultMeasure("total_deaths", "Total Deaths", "people"),
			DefaultMeasure("new_cases", "New Cases", "people"),
			DefaultMeasure("new_deaths", "New Deaths", "people"),
			DefaultMeasure("total_vaccinations", "Total Vaccinations", "doses"),
			DefaultMeasure("new_vaccinations", "New Vaccinations", "doses"),
		},
	}
}

// Validate checks that the schema names exactly one entity dimension, exactly
// one temporal dimension, and no repeated keys.
func (c Config) Validate() error {
	var errs []error
	entities, temporals := 0, 0
	seen := make(map[string]bool)

	for _, d := range c.Dimensions {
		if d.Key == "" {
			errs = append(errs, errors.New("dimension with empty key"))
			continue
		}
		if seen[d.Key] {
			errs = append(errs, fmt.Errorf("duplicate key %q", d.Key))
		}
		seen[d.Key] = true
		if d.IsEntity {
			entities++
		}
		if d.IsTemporal {
			temporals++
		}
		if d.IsEntity && d.IsTemporal {
			errs = append(errs, fmt.Errorf("dimension %q cannot be both entity and temporal", d.Key))
		}
	}
	for _, m := range c.Measures {
		if m.Key == "" {
			errs = append(errs, errors.New("measure with empty key"))
			continue
		}
		if seen[m.Key] {
			errs = append(errs, fmt.Errorf("duplicate key %q", m.Key))
		}
		seen[m.Key] = true
	}

	if entities != 1 {
		errs = append(errs, fmt.Errorf("want exactly one entity dimension, have %d", entities))
	}
	if temporals != 1 {
		errs = append(errs, fmt.Errorf("want exactly one temporal dimension, have %d", temporals))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid schema %q: %w", c.Name, errors.Join(errs...))
	}
	return nil
}

// EntityKey returns the key of the entity dimension, or "".
func (c Config) EntityKey() string {
	for _, d := range c.Dimensions {
		if d.IsEntity {
			return d.Key
		}
	}
	return ""
}

// DateKey returns the key of the temporal dimension, or "".
func (c Config) DateKey() string {
	for _, d := range c.Dimensions {
		if d.IsTemporal {
			return d.Key
		}
	}
	return ""
}

// DateLayouts returns the layouts of the temporal dimension.
func (c Config) DateLayouts() []string {
	for _, d := range c.Dimensions {
		if d.IsTemporal {
			return d.TemporalFormats
		}
	}
	return nil
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}
