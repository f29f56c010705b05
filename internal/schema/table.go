package schema

import (
	"fmt"
	"sort"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
)

// Table maps endpoint keys onto the response kind expected from them.
//
// Keys are "info", "info/<type>", "<type>" for listings and "<type>/" for
// single entries.
type Table struct {
	kinds map[string]Kind
}

// NewTable returns the table of built-in mappings.
func NewTable() *Table {
	table := &Table{kinds: map[string]Kind{
		constants.BaseInfoEndpoint: KindInfo,
	}}

	for _, entryType := range []string{constants.EntryTypeStructures, constants.EntryTypeCalculations} {
		table.setDefault(entryType, KindEntryMany)
		table.setDefault(entryType+"/", KindEntryOne)
	}

	table.setDefault(constants.BaseInfoEndpoint+"/"+constants.EntryTypeStructures, KindEntryInfo)

	return table
}

// RegisterEntryType adds the listing, single-entry and info mappings of an
// entry type. Existing mappings are kept.
func (t *Table) RegisterEntryType(entryType string) {
	t.setDefault(entryType, KindEntryMany)
	t.setDefault(entryType+"/", KindEntryOne)
	t.setDefault(constants.BaseInfoEndpoint+"/"+entryType, KindEntryInfo)
}

func (t *Table) setDefault(key string, kind Kind) {
	if _, ok := t.kinds[key]; !ok {
		t.kinds[key] = kind
	}
}

// Lookup returns the kind registered for key.
func (t *Table) Lookup(key string) (Kind, error) {
	kind, ok := t.kinds[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", optimade.ErrUnknownEndpoint, key)
	}

	return kind, nil
}

// Keys returns the registered keys in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.kinds))
	for key := range t.kinds {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
