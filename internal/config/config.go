// Package config defines the canonical, JSON-serializable configuration model
// for the mortality pipeline. It is intentionally small and explicit so that
// runs can be loaded from disk and passed through the program without
// additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job":    "us_county_deaths",
//	  "source": { "kind": "file", "file": { "path": "data/deaths_wide.csv" } },
//	  "table": {
//	    "state_column":      "Province_State",
//	    "county_column":     "Admin2",
//	    "population_column": "Population"
//	  },
//	  "exclude_regions": ["Puerto Rico", "Guam", "American Samoa"],
//	  "gdp":    { "path": "data/state_gdp.csv" },
//	  "aggregate": { "by": "region", "shards": 4 },
//	  "storage": { "kind": "none" }
//	}
package config

import "encoding/json"

// Pipeline describes one full run. It is the top-level object decoded from a
// pipeline file (e.g. configs/*.json).
type Pipeline struct {
	// Job identifies the run for logging and metrics labeling.
	Job string `json:"job"`

	// Source describes where the wide CSV comes from.
	Source Source `json:"source"`

	// Parser carries free-form parser options (delimiter, trim, header_map).
	Parser Options `json:"parser"`

	// Table maps the identity and population columns of the wide table.
	Table Table `json:"table"`

	// ExcludeRegions lists region identifiers removed after validation
	// (territories and special jurisdictions outside the analysis).
	ExcludeRegions []string `json:"exclude_regions"`

	// Dedup configures the optional intra-batch duplicate-entity collapse.
	Dedup Dedup `json:"dedup"`

	// GDP configures the per-capita GDP lookup joined into aggregates.
	GDP GDP `json:"gdp"`

	// Aggregate configures grouping and sharding.
	Aggregate Aggregate `json:"aggregate"`

	// Storage selects an optional sink for the run's output tables.
	Storage Storage `json:"storage"`
}

// Source identifies the data source. Kinds: "file", "http".
type Source struct {
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url"`

	// TimeoutSeconds bounds the whole download; 0 means the client default.
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int `json:"max_retries"`

	// InsecureSkipVerify disables TLS verification (internal endpoints only).
	InsecureSkipVerify bool `json:"insecure_skip_verify"`
}

// Table names the non-dated columns of the wide table. Every remaining
// header cell must parse as a calendar date.
type Table struct {
	// StateColumn is the region identifier column. Required.
	StateColumn string `json:"state_column"`

	// CountyColumn is the optional sub-region identifier column.
	CountyColumn string `json:"county_column"`

	// PopulationColumn is the population figure column. Required.
	PopulationColumn string `json:"population_column"`

	// DropColumns lists identifier columns the normalizer discards
	// (geocodes, coordinates, country code, combined keys, ...).
	DropColumns []string `json:"drop_columns"`
}

// Dedup configures duplicate-entity collapsing before validation.
type Dedup struct {
	// Enabled turns the stage on. Default off: the source is expected to
	// carry one row per entity.
	Enabled bool `json:"enabled"`

	// Policy selects the winner among duplicates: "keep-first", "keep-last"
	// or "most-complete". Default "keep-last".
	Policy string `json:"policy"`
}

// GDP configures the region -> per-capita GDP lookup.
type GDP struct {
	// Path is a two-column CSV (region, gdp_per_capita). Optional; when
	// empty no indicator is joined and the regression is skipped.
	Path string `json:"path"`
}

// Aggregate configures the reduction over observations.
type Aggregate struct {
	// By selects the grouping key: "region" (default) or "region_date".
	By string `json:"by"`

	// Shards enables parallel aggregation when > 1. Shard boundaries align
	// with entity identity, never splitting one entity across shards.
	Shards int `json:"shards"`
}

// Storage selects the sink used to persist the run's output tables.
// Kinds: "none" (default), "sqlite", "postgres".
type Storage struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the connection string (pgx pool DSN or SQLite path).
	DSN string `json:"dsn"`

	// TablePrefix is prepended to the output table names
	// (<prefix>observations, <prefix>aggregates, <prefix>rejected).
	TablePrefix string `json:"table_prefix"`

	// BatchSize bounds rows per insert batch. Default 500.
	BatchSize int `json:"batch_size"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It performs only
// minimal type coercion and returns provided defaults when a key is absent or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Useful for single-character parser settings such as the
// CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null options
// object decodes to a non-nil, empty Options map. This removes nil checks at
// call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
