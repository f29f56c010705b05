package optimade

import "github.com/goccy/go-json"

// Links is the top-level links object of a response. Each link is either
// a URL string, a link object or null.
type Links struct {
	Next  any `json:"next,omitempty"     yaml:"next,omitempty"`
	Prev  any `json:"prev,omitempty"     yaml:"prev,omitempty"`
	First any `json:"first,omitempty"    yaml:"first,omitempty"`
	Last  any `json:"last,omitempty"     yaml:"last,omitempty"`
	Base  any `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ResponseMetaQuery describes the query that produced a response.
type ResponseMetaQuery struct {
	Representation string `json:"representation" yaml:"representation"`
}

// Provider identifies the database provider serving the implementation.
type Provider struct {
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description"           yaml:"description"`
	Prefix      string `json:"prefix"                yaml:"prefix"`
	Homepage    any    `json:"homepage,omitempty"    yaml:"homepage,omitempty"`
}

// ResponseMeta is the meta object every response carries.
type ResponseMeta struct {
	Query             ResponseMetaQuery `json:"query"                    yaml:"query"`
	APIVersion        string            `json:"api_version"              yaml:"api_version"`
	MoreDataAvailable bool              `json:"more_data_available"      yaml:"more_data_available"`
	TimeStamp         string            `json:"time_stamp,omitempty"     yaml:"time_stamp,omitempty"`
	DataReturned      *int              `json:"data_returned,omitempty"  yaml:"data_returned,omitempty"`
	DataAvailable     *int              `json:"data_available,omitempty" yaml:"data_available,omitempty"`
	Provider          *Provider         `json:"provider,omitempty"       yaml:"provider,omitempty"`
}

// AvailableAPIVersion is one entry of available_api_versions.
type AvailableAPIVersion struct {
	URL     string `json:"url"     yaml:"url"`
	Version string `json:"version" yaml:"version"`
}

// BaseInfoAttributes are the attributes of the base info resource.
type BaseInfoAttributes struct {
	APIVersion           string                `json:"api_version"            yaml:"api_version"`
	AvailableAPIVersions []AvailableAPIVersion `json:"available_api_versions" yaml:"available_api_versions"`
	Formats              []string              `json:"formats"                yaml:"formats"`
	AvailableEndpoints   []string              `json:"available_endpoints"    yaml:"available_endpoints"`
	EntryTypesByFormat   map[string][]string   `json:"entry_types_by_format"  yaml:"entry_types_by_format"`
	IsIndex              *bool                 `json:"is_index,omitempty"     yaml:"is_index,omitempty"`
}

// BaseInfoResource is the data object of the base info document.
type BaseInfoResource struct {
	ID         string             `json:"id"         yaml:"id"`
	Type       string             `json:"type"       yaml:"type"`
	Attributes BaseInfoAttributes `json:"attributes" yaml:"attributes"`
}

// InfoResponse is the response of the base info endpoint.
type InfoResponse struct {
	Data  BaseInfoResource `json:"data"            yaml:"data"`
	Meta  ResponseMeta     `json:"meta"            yaml:"meta"`
	Links *Links           `json:"links,omitempty" yaml:"links,omitempty"`
}

// JSONEntryTypes returns the entry types advertised for the JSON format and
// whether the format key was present at all.
func (r *InfoResponse) JSONEntryTypes(format string) ([]string, bool) {
	if r == nil || r.Data.Attributes.EntryTypesByFormat == nil {
		return nil, false
	}

	types, ok := r.Data.Attributes.EntryTypesByFormat[format]

	return types, ok
}

// EntryInfoProperty describes one queryable property of an entry type.
type EntryInfoProperty struct {
	Description string  `json:"description"       yaml:"description"`
	Unit        *string `json:"unit,omitempty"    yaml:"unit,omitempty"`
	Sortable    *bool   `json:"sortable,omitempty" yaml:"sortable,omitempty"`
	Type        *string `json:"type,omitempty"    yaml:"type,omitempty"`
}

// EntryInfoResource is the data object of a per-type info document.
type EntryInfoResource struct {
	Formats              []string                     `json:"formats"                 yaml:"formats"`
	Description          string                       `json:"description"             yaml:"description"`
	Properties           map[string]EntryInfoProperty `json:"properties"              yaml:"properties"`
	OutputFieldsByFormat map[string][]string          `json:"output_fields_by_format" yaml:"output_fields_by_format"`
}

// EntryInfoResponse is the response of an info/<type> endpoint.
type EntryInfoResponse struct {
	Data  EntryInfoResource `json:"data"            yaml:"data"`
	Meta  ResponseMeta      `json:"meta"            yaml:"meta"`
	Links *Links            `json:"links,omitempty" yaml:"links,omitempty"`
}

// EntryResource is a single record of any entry type. Attributes are kept
// raw; only the identifying fields are interpreted.
type EntryResource struct {
	ID            string                     `json:"id"                      yaml:"id"`
	Type          string                     `json:"type"                    yaml:"type"`
	Attributes    json.RawMessage            `json:"attributes,omitempty"    yaml:"-"`
	Relationships map[string]json.RawMessage `json:"relationships,omitempty" yaml:"-"`
	Links         json.RawMessage            `json:"links,omitempty"         yaml:"-"`
}

// EntryResponseMany is the listing returned by a <type> endpoint.
type EntryResponseMany struct {
	Data     []EntryResource `json:"data"               yaml:"data"`
	Meta     ResponseMeta    `json:"meta"               yaml:"meta"`
	Links    *Links          `json:"links,omitempty"    yaml:"links,omitempty"`
	Included []EntryResource `json:"included,omitempty" yaml:"included,omitempty"`
}

// EntryResponseOne is the response of a <type>/<id> endpoint. Data is nil
// when the server found no matching entry.
type EntryResponseOne struct {
	Data     *EntryResource  `json:"data"               yaml:"data"`
	Meta     ResponseMeta    `json:"meta"               yaml:"meta"`
	Links    *Links          `json:"links,omitempty"    yaml:"links,omitempty"`
	Included []EntryResource `json:"included,omitempty" yaml:"included,omitempty"`
}
