// Package schema validates raw response bodies against the embedded
// reference schemas and decodes them into the typed models of pkg/optimade.
package schema

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Kind names an expected response shape.
type Kind string

const (
	KindInfo      Kind = "InfoResponse"
	KindEntryInfo Kind = "EntryInfoResponse"
	KindEntryMany Kind = "EntryResponseMany"
	KindEntryOne  Kind = "EntryResponseOne"
)

var schemaFiles = map[Kind]string{
	KindInfo:      "schemas/info.json",
	KindEntryInfo: "schemas/entry_info.json",
	KindEntryMany: "schemas/entry_many.json",
	KindEntryOne:  "schemas/entry_one.json",
}

const commonSchemaFile = "schemas/common.json"

// Validator holds the compiled schemas. It is safe for concurrent use once
// constructed.
type Validator struct {
	schemas map[Kind]*gojsonschema.Schema
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	common, err := schemaFS.ReadFile(commonSchemaFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", commonSchemaFile, err)
	}

	validator := &Validator{schemas: make(map[Kind]*gojsonschema.Schema, len(schemaFiles))}

	for kind, file := range schemaFiles {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		loader := gojsonschema.NewSchemaLoader()

		err = loader.AddSchemas(gojsonschema.NewBytesLoader(common))
		if err != nil {
			return nil, fmt.Errorf("adding common schema for %s: %w", kind, err)
		}

		compiled, err := loader.Compile(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", kind, err)
		}

		validator.schemas[kind] = compiled
	}

	return validator, nil
}

// Validate checks raw against the schema of kind and returns the decoded
// model: *optimade.InfoResponse, *optimade.EntryInfoResponse,
// *optimade.EntryResponseMany or *optimade.EntryResponseOne.
func (v *Validator) Validate(kind Kind, raw []byte) (any, error) {
	switch kind {
	case KindInfo:
		return v.ValidateInfo(raw)
	case KindEntryInfo:
		return v.ValidateEntryInfo(raw)
	case KindEntryMany:
		return v.ValidateEntryMany(raw)
	case KindEntryOne:
		return v.ValidateEntryOne(raw)
	default:
		return nil, fmt.Errorf("%w: kind %q", optimade.ErrUnknownEndpoint, kind)
	}
}

// ValidateInfo validates a base info document.
func (v *Validator) ValidateInfo(raw []byte) (*optimade.InfoResponse, error) {
	return validateInto[optimade.InfoResponse](v, KindInfo, raw)
}

// ValidateEntryInfo validates a per-type info document.
func (v *Validator) ValidateEntryInfo(raw []byte) (*optimade.EntryInfoResponse, error) {
	return validateInto[optimade.EntryInfoResponse](v, KindEntryInfo, raw)
}

// ValidateEntryMany validates a multi-entry listing.
func (v *Validator) ValidateEntryMany(raw []byte) (*optimade.EntryResponseMany, error) {
	return validateInto[optimade.EntryResponseMany](v, KindEntryMany, raw)
}

// ValidateEntryOne validates a single-entry document.
func (v *Validator) ValidateEntryOne(raw []byte) (*optimade.EntryResponseOne, error) {
	return validateInto[optimade.EntryResponseOne](v, KindEntryOne, raw)
}

func validateInto[T any](v *Validator, kind Kind, raw []byte) (*T, error) {
	compiled, ok := v.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: kind %q", optimade.ErrUnknownEndpoint, kind)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, &optimade.ValidationError{Schema: string(kind), Cause: ErrEmptyBody}
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &optimade.ValidationError{Schema: string(kind), Cause: fmt.Errorf("parsing response body: %w", err)}
	}

	if !result.Valid() {
		return nil, &optimade.ValidationError{Schema: string(kind), Fields: convertErrors(result.Errors())}
	}

	var out T

	err = json.Unmarshal(raw, &out)
	if err != nil {
		return nil, &optimade.ValidationError{Schema: string(kind), Cause: fmt.Errorf("decoding response body: %w", err)}
	}

	return &out, nil
}

func convertErrors(resultErrors []gojsonschema.ResultError) []optimade.FieldError {
	fields := make([]optimade.FieldError, 0, len(resultErrors))

	for _, e := range resultErrors {
		fields = append(fields, optimade.FieldError{
			Field:       e.Field(),
			Description: e.Description(),
		})
	}

	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Field < fields[j].Field
	})

	return fields
}
