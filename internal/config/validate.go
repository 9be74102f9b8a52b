// Package config provides configuration models and helpers for pipeline runs.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "table.population_column"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateTable(p.Table)...)
	issues = append(issues, validateDedup(p.Dedup)...)
	issues = append(issues, validateAggregate(p.Aggregate)...)
	issues = append(issues, validateStorage(p.Storage)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "path must not be empty for source.kind=file",
			})
		}
	case "http":
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "url must not be empty for source.kind=http",
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.http.insecure_skip_verify",
				Message:  "TLS verification is disabled; only use against trusted internal endpoints",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  `kind is required (one of "file", "http")`,
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q", s.Kind),
		})
	}

	return issues
}

func validateTable(t Table) []Issue {
	var issues []Issue

	if strings.TrimSpace(t.StateColumn) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "table.state_column",
			Message:  "state_column is required; it is the region identifier of every record",
		})
	}
	if strings.TrimSpace(t.PopulationColumn) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "table.population_column",
			Message:  "population_column is required; the plausibility rule compares every dated value against it",
		})
	}
	if t.CountyColumn == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "table.county_column",
			Message:  "county_column is empty; records aggregate at region grain only",
		})
	}

	return issues
}

func validateDedup(d Dedup) []Issue {
	if !d.Enabled {
		return nil
	}
	switch d.Policy {
	case "", "keep-first", "keep-last", "most-complete":
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Path:     "dedup.policy",
		Message:  fmt.Sprintf(`unknown policy %q (use "keep-first", "keep-last" or "most-complete")`, d.Policy),
	}}
}

func validateAggregate(a Aggregate) []Issue {
	var issues []Issue

	switch a.By {
	case "", "region", "region_date":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "aggregate.by",
			Message:  fmt.Sprintf(`unknown grouping %q (use "region" or "region_date")`, a.By),
		})
	}
	if a.Shards < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "aggregate.shards",
			Message:  "shards must be >= 0 (0 or 1 means sequential)",
		})
	}

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "", "none":
		return nil
	case "sqlite", "postgres":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  fmt.Sprintf("dsn must not be empty for storage.kind=%s", s.Kind),
			})
		}
		if s.DB.BatchSize < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.batch_size",
				Message:  "batch_size must be >= 0 (0 means default)",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q", s.Kind),
		})
	}

	return issues
}
