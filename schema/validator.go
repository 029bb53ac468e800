// Package payloadschema validates candidate business listing payloads
// against the embedded v1 JSON schema before they enter the pipeline.
package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed candidate.schema.json
var candidateSchemaJSON string

// Candidate is the decoded form of a v1 business candidate payload.
type Candidate struct {
	PayloadVersion   string         `json:"payload_version"`
	Platform         string         `json:"platform"`
	SourceURL        string         `json:"source_url"`
	Title            string         `json:"title"`
	Description      *string        `json:"description,omitempty"`
	DescriptionHTML  *string        `json:"description_html,omitempty"`
	DeclaredCategory *string        `json:"declared_category,omitempty"`
	DeclaredLocation *string        `json:"declared_location,omitempty"`
	Phone            *string        `json:"phone,omitempty"`
	Email            *string        `json:"email,omitempty"`
	PageCreatedAt    *string        `json:"page_created_at,omitempty"`
	FetchedAt        *string        `json:"fetched_at,omitempty"`
	SourceMetadata   map[string]any `json:"source_metadata,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateCandidatePayload checks a raw JSON payload against the embedded
// schema plus semantic rules and returns the decoded candidate.
func ValidateCandidatePayload(payload json.RawMessage) (*Candidate, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var candidate Candidate
	if err := json.Unmarshal(normalized, &candidate); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&candidate); err != nil {
		return nil, err
	}

	return &candidate, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("candidate.schema.json", strings.NewReader(candidateSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("candidate.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(candidate *Candidate) error {
	if candidate == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(candidate.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}
	if strings.TrimSpace(candidate.Platform) == "" {
		return fmt.Errorf("platform must not be empty")
	}
	if strings.TrimSpace(candidate.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(candidate.SourceURL) == "" {
		return fmt.Errorf("source_url must not be empty")
	}

	// source_url syntax is deliberately not checked here: a malformed URL
	// is a per-record rejection in the pipeline, not a payload error.

	if candidate.PageCreatedAt != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*candidate.PageCreatedAt)); err != nil {
			return fmt.Errorf("page_created_at must be RFC3339: %w", err)
		}
	}
	if candidate.FetchedAt != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*candidate.FetchedAt)); err != nil {
			return fmt.Errorf("fetched_at must be RFC3339: %w", err)
		}
	}

	return nil
}
