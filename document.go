// Package jsonapi is a client-side data layer for the JSON:API hypermedia
// convention. It turns raw JSON:API documents (resources, relationship
// linkage, side-loaded included resources) into a graph of Records with
// relationships resolved to direct references, and serializes Records back
// into wire form for writes, including the atomic operations extension.
//
// The entry point is Session, created with New. A Session owns immutable
// model definitions and delegates all request mechanics to a Transport, such
// as the one provided by the transport sub-package.
package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentType is the MIME type JSON:API documents are exchanged with.
const ContentType = "application/vnd.api+json"

// ResourceIdentifier identifies a single resource by its type together with
// either a server-assigned id or a client-assigned local id ("lid"). A local
// id identifies a not-yet-persisted entity so that it can be referenced from
// a sibling operation before the server assigns a real id, notably inside
// atomic batches.
type ResourceIdentifier struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	LocalID string `json:"lid,omitempty"`
}

// Key returns the identifying string of the identifier: the id if set,
// otherwise the local id. Identity of a resource is always the pair of Type
// and Key; the key alone must never be used as an index.
func (ri ResourceIdentifier) Key() string {
	if ri.ID != "" {
		return ri.ID
	}
	return ri.LocalID
}

// Resource is the wire form of a single JSON:API resource object.
type Resource struct {
	ID            string                     `json:"id,omitempty"`
	LocalID       string                     `json:"lid,omitempty"`
	Type          string                     `json:"type"`
	Attributes    map[string]any             `json:"attributes,omitempty"`
	Relationships map[string]Relationship    `json:"relationships,omitempty"`
	Links         map[string]json.RawMessage `json:"links,omitempty"`
	Meta          map[string]json.RawMessage `json:"meta,omitempty"`
}

// Identifier returns the identifier pair for the resource. The local id is
// preferred over the id so that references to not-yet-persisted resources
// stay symbolic.
func (r Resource) Identifier() ResourceIdentifier {
	if r.LocalID != "" {
		return ResourceIdentifier{Type: r.Type, LocalID: r.LocalID}
	}
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// Relationship is the linkage entry of a resource's relationships map. Its
// wire "data" member is tri-state and the distinction is load-bearing:
//
//   - the data key absent entirely (links-only relationship) means the
//     relationship is not resolvable from this payload and must not be
//     populated; Present is false.
//   - data set to null or to an empty array means the relationship is known
//     to be empty; Present is true and Data is empty.
//   - otherwise data holds one identifier or an array of identifiers.
//
// Plural records whether the wire linkage was an array, so that re-encoding
// reproduces the original shape.
type Relationship struct {
	Present bool
	Plural  bool
	Data    []ResourceIdentifier
	Links   map[string]json.RawMessage
	Meta    map[string]json.RawMessage
}

// ToOne builds a singular relationship linkage to the given identifier.
func ToOne(ident ResourceIdentifier) Relationship {
	return Relationship{Present: true, Data: []ResourceIdentifier{ident}}
}

// ToMany builds a plural relationship linkage to the given identifiers. An
// empty or nil idents encodes as "data": [], the known-empty linkage.
func ToMany(idents []ResourceIdentifier) Relationship {
	return Relationship{Present: true, Plural: true, Data: idents}
}

func (rel *Relationship) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*rel = Relationship{}

	if links, ok := raw["links"]; ok {
		if err := json.Unmarshal(links, &rel.Links); err != nil {
			return fmt.Errorf("links: %w", err)
		}
	}
	if meta, ok := raw["meta"]; ok {
		if err := json.Unmarshal(meta, &rel.Meta); err != nil {
			return fmt.Errorf("meta: %w", err)
		}
	}

	linkage, ok := raw["data"]
	if !ok {
		// links-only; leave Present false so graph wiring skips it
		return nil
	}
	rel.Present = true

	trimmed := bytes.TrimSpace(linkage)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		rel.Plural = true
		return json.Unmarshal(linkage, &rel.Data)
	default:
		var one ResourceIdentifier
		if err := json.Unmarshal(linkage, &one); err != nil {
			return err
		}
		rel.Data = []ResourceIdentifier{one}
		return nil
	}
}

func (rel Relationship) MarshalJSON() ([]byte, error) {
	raw := map[string]any{}

	if len(rel.Links) > 0 {
		raw["links"] = rel.Links
	}
	if len(rel.Meta) > 0 {
		raw["meta"] = rel.Meta
	}

	if rel.Present {
		if rel.Plural {
			idents := rel.Data
			if idents == nil {
				idents = []ResourceIdentifier{}
			}
			raw["data"] = idents
		} else if len(rel.Data) > 0 {
			raw["data"] = rel.Data[0]
		} else {
			raw["data"] = nil
		}
	}

	return json.Marshal(raw)
}

// ErrorObject is a single member of a document's errors array.
type ErrorObject struct {
	ID     string          `json:"id,omitempty"`
	Status string          `json:"status,omitempty"`
	Code   string          `json:"code,omitempty"`
	Title  string          `json:"title,omitempty"`
	Detail string          `json:"detail,omitempty"`
	Source json.RawMessage `json:"source,omitempty"`
}

// Message returns a human-readable message for the error, preferring the
// combination of title and detail when both are set.
func (eo ErrorObject) Message() string {
	switch {
	case eo.Title != "" && eo.Detail != "":
		return eo.Title + ": " + eo.Detail
	case eo.Title != "":
		return eo.Title
	case eo.Detail != "":
		return eo.Detail
	case eo.Code != "":
		return eo.Code
	default:
		return "unknown error"
	}
}

// Document is the top-level JSON:API document. The wire "data" member is
// polymorphic (a single resource object, an array of resource objects, or
// null); a Document always stores resources in the Data slice and records the
// wire shape in Single and HasData so it can be reproduced on re-encode and
// so that "single resource, null" is distinguishable from "empty collection".
type Document struct {
	Data     []Resource
	Single   bool
	HasData  bool
	Included []Resource
	Errors   []ErrorObject
	Meta     map[string]json.RawMessage
	Links    map[string]json.RawMessage
}

// SingleDocument builds a document whose data member is the one given
// resource.
func SingleDocument(res Resource) *Document {
	return &Document{Data: []Resource{res}, Single: true, HasData: true}
}

// CollectionDocument builds a document whose data member is the given
// resource array.
func CollectionDocument(res []Resource) *Document {
	return &Document{Data: res, HasData: true}
}

// First returns a pointer to the first resource of the document's data, or
// nil if the document carries no resources.
func (d *Document) First() *Resource {
	if d == nil || len(d.Data) == 0 {
		return nil
	}
	return &d.Data[0]
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Data     json.RawMessage            `json:"data"`
		Included []Resource                 `json:"included"`
		Errors   []ErrorObject              `json:"errors"`
		Meta     map[string]json.RawMessage `json:"meta"`
		Links    map[string]json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{
		Included: raw.Included,
		Errors:   raw.Errors,
		Meta:     raw.Meta,
		Links:    raw.Links,
	}

	if raw.Data == nil {
		return nil
	}
	d.HasData = true

	trimmed := bytes.TrimSpace(raw.Data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		d.Single = true
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		return json.Unmarshal(raw.Data, &d.Data)
	default:
		d.Single = true
		var one Resource
		if err := json.Unmarshal(raw.Data, &one); err != nil {
			return err
		}
		d.Data = []Resource{one}
		return nil
	}
}

func (d Document) MarshalJSON() ([]byte, error) {
	raw := map[string]any{}

	if d.HasData {
		if d.Single {
			if len(d.Data) > 0 {
				raw["data"] = d.Data[0]
			} else {
				raw["data"] = nil
			}
		} else {
			data := d.Data
			if data == nil {
				data = []Resource{}
			}
			raw["data"] = data
		}
	}
	if len(d.Included) > 0 {
		raw["included"] = d.Included
	}
	if len(d.Errors) > 0 {
		raw["errors"] = d.Errors
	}
	if len(d.Meta) > 0 {
		raw["meta"] = d.Meta
	}
	if len(d.Links) > 0 {
		raw["links"] = d.Links
	}

	return json.Marshal(raw)
}
