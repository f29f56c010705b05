package validator

import (
	"bytes"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/goccy/go-json"
)

// Reasons discovery can fail.
const (
	reasonNoBody         = "Unable to get entry types from base info endpoint"
	reasonUnserializable = "Unable to get entry_types_by_format from unserializable base info response"
	reasonNoJSONTypes    = "Unable to find any JSON entry types in entry_types_by_format"
)

// Discovery is the outcome of reading the JSON entry types advertised by a
// base info document: either Found with the types, or not found with a
// Reason.
type Discovery struct {
	EntryTypes []string
	Reason     string
}

// Found reports whether entry types were found.
func (d Discovery) Found() bool {
	return d.Reason == ""
}

func found(entryTypes []string) Discovery {
	return Discovery{EntryTypes: entryTypes}
}

func notFound(reason string) Discovery {
	return Discovery{Reason: reason}
}

// discoverEntryTypes reads data.attributes.entry_types_by_format.json. The
// validated model is used when available; otherwise the raw body is walked
// by hand.
func discoverEntryTypes(info *optimade.InfoResponse, raw []byte) Discovery {
	if info != nil {
		entryTypes, ok := info.JSONEntryTypes(constants.JSONFormat)
		if !ok || len(entryTypes) == 0 {
			return notFound(reasonNoJSONTypes)
		}

		return found(entryTypes)
	}

	return extractEntryTypes(raw)
}

func extractEntryTypes(raw []byte) Discovery {
	var document any
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &document) != nil || isEmptyJSON(document) {
		return notFound(reasonNoBody)
	}

	node := document
	for _, key := range []string{"data", "attributes", "entry_types_by_format", constants.JSONFormat} {
		object, ok := node.(map[string]any)
		if !ok {
			return notFound(reasonUnserializable)
		}

		node, ok = object[key]
		if !ok {
			return notFound(reasonUnserializable)
		}
	}

	list, ok := node.([]any)
	if !ok {
		return notFound(reasonUnserializable)
	}

	entryTypes := make([]string, 0, len(list))
	for _, item := range list {
		entryType, ok := item.(string)
		if !ok {
			return notFound(reasonUnserializable)
		}

		entryTypes = append(entryTypes, entryType)
	}

	if len(entryTypes) == 0 {
		return notFound(reasonNoJSONTypes)
	}

	return found(entryTypes)
}

func isEmptyJSON(document any) bool {
	switch value := document.(type) {
	case nil:
		return true
	case map[string]any:
		return len(value) == 0
	case []any:
		return len(value) == 0
	default:
		return false
	}
}
