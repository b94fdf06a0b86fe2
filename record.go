package jsonapi

import "sort"

// Record is the in-memory, normalized form of a resource: identity fields
// plus a property map holding attribute values and resolved relationship
// references. Relationship-valued properties hold a *Record (belongs-to) or
// a []*Record (has-many), never raw identifiers.
//
// The distinction between a property that was never set and a property set to
// nil matters for serialization: an unset property is omitted from the wire
// payload entirely, while a nil-valued one encodes as JSON null. Use Unset to
// remove a property and Has to tell the two apart.
//
// Records are plain caller-owned values. Once a Session returns one it keeps
// no reference to it; mutating or discarding it cannot affect later calls.
type Record struct {
	// Type is the JSON:API resource type of the record. It is identity
	// metadata, not an attribute, and never appears in the property map.
	Type string

	// ID is the server-assigned id, if any.
	ID string

	// LocalID is the client-assigned local id ("lid") for records that have
	// not been persisted yet.
	LocalID string

	props map[string]any
}

// NewRecord creates a bare record of the given type. Most callers want
// Session.CreateRecord instead, which validates the type against the model
// definitions and assigns an id.
func NewRecord(typ string) *Record {
	return &Record{Type: typ, props: map[string]any{}}
}

// Identifier returns the identifier pair of the record, preferring the local
// id over the id so that references to not-yet-persisted records encode
// symbolically.
func (r *Record) Identifier() ResourceIdentifier {
	if r.LocalID != "" {
		return ResourceIdentifier{Type: r.Type, LocalID: r.LocalID}
	}
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// Get returns the value of the named property, or nil if it is not set.
func (r *Record) Get(name string) any {
	if r.props == nil {
		return nil
	}
	return r.props[name]
}

// Has returns whether the named property is set, including when it is set to
// nil.
func (r *Record) Has(name string) bool {
	_, ok := r.props[name]
	return ok
}

// Set assigns the named property. Setting nil is meaningful: it encodes as
// JSON null rather than being dropped from the payload.
func (r *Record) Set(name string, value any) {
	if r.props == nil {
		r.props = map[string]any{}
	}
	r.props[name] = value
}

// Unset removes the named property entirely so it is omitted from the wire
// payload on serialization.
func (r *Record) Unset(name string) {
	delete(r.props, name)
}

// Properties returns the set property names in sorted order.
func (r *Record) Properties() []string {
	names := make([]string, 0, len(r.props))
	for name := range r.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Related returns the named property as a single related record. It returns
// nil when the property is unset, explicitly null, or not relationship
// valued.
func (r *Record) Related(name string) *Record {
	rel, _ := r.Get(name).(*Record)
	return rel
}

// RelatedAll returns the named property as a list of related records. It
// returns nil when the property is unset or not relationship valued.
func (r *Record) RelatedAll(name string) []*Record {
	rels, _ := r.Get(name).([]*Record)
	return rels
}
