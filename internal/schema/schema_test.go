package schema_test

import (
	"errors"
	"testing"

	"github.com/fivetwenty-io/optimade-validator/internal/schema"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const meta = `{"query":{"representation":"/structures"},"api_version":"1.0.0","more_data_available":false}`

func newValidator(t *testing.T) *schema.Validator {
	t.Helper()

	validator, err := schema.NewValidator()
	require.NoError(t, err)

	return validator
}

func TestValidator_Info(t *testing.T) {
	t.Parallel()

	validator := newValidator(t)

	t.Run("conformant document", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`{
			"data": {
				"id": "/",
				"type": "info",
				"attributes": {
					"api_version": "1.0.0",
					"available_api_versions": [{"url": "http://localhost:5000/v1", "version": "1.0.0"}],
					"formats": ["json"],
					"available_endpoints": ["info", "structures"],
					"entry_types_by_format": {"json": ["structures", "references"]}
				}
			},
			"meta": ` + meta + `
		}`)

		info, err := validator.ValidateInfo(raw)
		require.NoError(t, err)

		types, ok := info.JSONEntryTypes("json")
		assert.True(t, ok)
		assert.Equal(t, []string{"structures", "references"}, types)
	})

	t.Run("minimal document fails with field errors", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`{"data":{"attributes":{"entry_types_by_format":{"json":["structures"]}}}}`)

		info, err := validator.ValidateInfo(raw)
		require.Error(t, err)
		assert.Nil(t, info)

		validationErr := &optimade.ValidationError{}
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "InfoResponse", validationErr.Schema)
		assert.NotEmpty(t, validationErr.Fields)
		assert.Contains(t, err.Error(), "validation error(s) for InfoResponse")
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		_, err := validator.ValidateInfo(nil)
		require.ErrorIs(t, err, schema.ErrEmptyBody)
		assert.Equal(t, "ValidationError", optimade.ErrorKind(err))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := validator.ValidateInfo([]byte(`{"data":`))
		require.Error(t, err)
		assert.True(t, optimade.IsRecoverable(err))
	})
}

func TestValidator_Entries(t *testing.T) {
	t.Parallel()

	validator := newValidator(t)

	many, err := validator.ValidateEntryMany([]byte(`{"data":[{"id":"abc","type":"structures","attributes":{}}],"meta":` + meta + `}`))
	require.NoError(t, err)
	require.Len(t, many.Data, 1)
	assert.Equal(t, "abc", many.Data[0].ID)
	assert.Equal(t, "structures", many.Data[0].Type)

	_, err = validator.ValidateEntryMany([]byte(`{"data":[{"type":"structures"}],"meta":` + meta + `}`))
	require.Error(t, err)

	one, err := validator.ValidateEntryOne([]byte(`{"data":{"id":"abc","type":"structures"},"meta":` + meta + `}`))
	require.NoError(t, err)
	require.NotNil(t, one.Data)
	assert.Equal(t, "abc", one.Data.ID)

	one, err = validator.ValidateEntryOne([]byte(`{"data":null,"meta":` + meta + `}`))
	require.NoError(t, err)
	assert.Nil(t, one.Data)

	_, err = validator.ValidateEntryOne([]byte(`{"data":[],"meta":` + meta + `}`))
	require.Error(t, err)
}

func TestValidator_EntryInfo(t *testing.T) {
	t.Parallel()

	validator := newValidator(t)

	raw := []byte(`{
		"data": {
			"formats": ["json"],
			"description": "a structure",
			"properties": {"nelements": {"description": "number of elements", "type": "integer"}},
			"output_fields_by_format": {"json": ["nelements"]}
		},
		"meta": ` + meta + `
	}`)

	entryInfo, err := validator.ValidateEntryInfo(raw)
	require.NoError(t, err)
	assert.Equal(t, "a structure", entryInfo.Data.Description)
	assert.Contains(t, entryInfo.Data.Properties, "nelements")

	anyValue, err := validator.Validate(schema.KindEntryInfo, raw)
	require.NoError(t, err)
	assert.IsType(t, &optimade.EntryInfoResponse{}, anyValue)

	_, err = validator.Validate(schema.Kind("Bogus"), raw)
	require.ErrorIs(t, err, optimade.ErrUnknownEndpoint)
	assert.False(t, optimade.IsRecoverable(err))
}

func TestTable(t *testing.T) {
	t.Parallel()

	table := schema.NewTable()

	for key, want := range map[string]schema.Kind{
		"structures":      schema.KindEntryMany,
		"structures/":     schema.KindEntryOne,
		"calculations":    schema.KindEntryMany,
		"calculations/":   schema.KindEntryOne,
		"info":            schema.KindInfo,
		"info/structures": schema.KindEntryInfo,
	} {
		kind, err := table.Lookup(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, kind, key)
	}

	assert.Len(t, table.Keys(), 6)

	_, err := table.Lookup("references")
	require.ErrorIs(t, err, optimade.ErrUnknownEndpoint)

	table.RegisterEntryType("references")

	kind, err := table.Lookup("info/references")
	require.NoError(t, err)
	assert.Equal(t, schema.KindEntryInfo, kind)

	kind, err = table.Lookup("references/")
	require.NoError(t, err)
	assert.Equal(t, schema.KindEntryOne, kind)
	assert.Len(t, table.Keys(), 9)
}
