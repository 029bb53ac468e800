// Package rules loads and validates the scoring rules document: category
// keyword lists, the location gazetteer, component weights, thresholds, and
// the tracking-parameter strip list. A rules document is immutable for the
// lifetime of an ingestion run.
package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed rules.schema.json
var rulesSchemaJSON string

//go:embed default_rules.json
var defaultRulesJSON []byte

type Country struct {
	Name        string `json:"name"`
	DialCode    string `json:"dial_code"`
	TrunkPrefix string `json:"trunk_prefix,omitempty"`
}

type Place struct {
	City  string `json:"city"`
	State string `json:"state,omitempty"`
}

// Category order in the document defines the tie-break priority when two
// categories have equal match counts.
type Category struct {
	ID       string   `json:"id"`
	Keywords []string `json:"keywords"`
}

type Weights struct {
	Location     int `json:"location"`
	Category     int `json:"category"`
	Contact      int `json:"contact"`
	Freshness    int `json:"freshness"`
	Completeness int `json:"completeness"`
}

type Thresholds struct {
	CategorySaturation      int `json:"category_saturation"`
	PriorityHigh            int `json:"priority_high"`
	PriorityMedium          int `json:"priority_medium"`
	MinAcceptScore          int `json:"min_accept_score"`
	RecencyWindowDays       int `json:"recency_window_days"`
	FreshnessOuterBoundDays int `json:"freshness_outer_bound_days,omitempty"`
}

type Rules struct {
	Version        string     `json:"rules_version"`
	Country        Country    `json:"country"`
	Gazetteer      []Place    `json:"gazetteer"`
	Categories     []Category `json:"categories"`
	Weights        Weights    `json:"weights"`
	Thresholds     Thresholds `json:"thresholds"`
	TrackingParams []string   `json:"tracking_params,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// Default returns the embedded Nigerian rules document.
func Default() (*Rules, error) {
	return Parse(defaultRulesJSON)
}

// Load reads a rules document from path, or returns the embedded default
// when path is empty.
func Load(path string) (*Rules, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Default()
	}

	payload, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("read rules file %q: %w", trimmed, err)
	}
	r, err := Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", trimmed, err)
	}
	return r, nil
}

// Parse validates a rules JSON document against the embedded schema and the
// semantic constraints, and returns the decoded rules.
func Parse(payload []byte) (*Rules, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode rules JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load rules schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("rules schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize rules JSON: %w", err)
	}

	var r Rules
	if err := json.Unmarshal(normalized, &r); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}

	if r.Thresholds.FreshnessOuterBoundDays == 0 {
		r.Thresholds.FreshnessOuterBoundDays = 4 * r.Thresholds.RecencyWindowDays
	}

	if err := r.validateSemantics(); err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *Rules) validateSemantics() error {
	if r.Thresholds.PriorityMedium > r.Thresholds.PriorityHigh {
		return fmt.Errorf(
			"thresholds.priority_medium (%d) must not exceed thresholds.priority_high (%d)",
			r.Thresholds.PriorityMedium, r.Thresholds.PriorityHigh,
		)
	}
	if r.Thresholds.FreshnessOuterBoundDays < r.Thresholds.RecencyWindowDays {
		return fmt.Errorf(
			"thresholds.freshness_outer_bound_days (%d) must not be below thresholds.recency_window_days (%d)",
			r.Thresholds.FreshnessOuterBoundDays, r.Thresholds.RecencyWindowDays,
		)
	}

	seen := make(map[string]struct{}, len(r.Categories))
	for _, c := range r.Categories {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// CategoryRank returns the tie-break rank of a category id; lower wins.
// Unknown ids sort last.
func (r *Rules) CategoryRank(id string) int {
	for i, c := range r.Categories {
		if c.ID == id {
			return i
		}
	}
	return len(r.Categories)
}

// IsTrackingParam reports whether a query parameter name should be stripped
// during URL normalization. utm_* parameters are always stripped.
func (r *Rules) IsTrackingParam(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	for _, p := range r.TrackingParams {
		if strings.EqualFold(p, lower) {
			return true
		}
	}
	return false
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("rules.schema.json", strings.NewReader(rulesSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("rules.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})
	return compiledSchema, compiledSchemaErr
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("rules document is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("rules document contains trailing content")
	}

	return value, nil
}
