package jsonapi

import "encoding/json"

// AtomicExtension is the URI of the JSON:API atomic operations extension,
// suitable for use in the ext media type parameter when negotiating content.
const AtomicExtension = "https://jsonapi.org/ext/atomic"

// OpType is the kind of a single atomic operation.
type OpType string

const (
	OpAdd    OpType = "add"
	OpUpdate OpType = "update"
	OpRemove OpType = "remove"
)

// Ref addresses the target of an atomic operation without carrying a full
// resource object, as used by remove operations.
type Ref struct {
	Type         string `json:"type"`
	ID           string `json:"id,omitempty"`
	LocalID      string `json:"lid,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// Operation is a single member of an atomic batch. Exactly one of Data and
// Ref is expected to be set: add and update carry the full resource in Data,
// remove addresses its target through Ref.
type Operation struct {
	Op   OpType    `json:"op"`
	Ref  *Ref      `json:"ref,omitempty"`
	Data *Resource `json:"data,omitempty"`
}

// AtomicDocument is the request body of an atomic operations batch, one
// operation per entry, applied by the server in order as a single
// transaction.
type AtomicDocument struct {
	Operations []Operation `json:"atomic:operations"`
}

// OperationResult is the per-operation entry of an atomic result document.
// Data is nil for operations that produce no resource, such as removes.
type OperationResult struct {
	Data *Resource                  `json:"data,omitempty"`
	Meta map[string]json.RawMessage `json:"meta,omitempty"`
}

// AtomicResultDocument is the response body of an atomic operations batch. A
// batch may also legitimately produce no response body at all (an all-update
// batch answered with no content); that case is represented by the absence of
// the document, not by an empty one.
type AtomicResultDocument struct {
	Results []OperationResult `json:"atomic:results"`
}

// Resources returns the non-nil result resources of the document in order.
func (d *AtomicResultDocument) Resources() []Resource {
	if d == nil {
		return nil
	}
	res := make([]Resource, 0, len(d.Results))
	for _, r := range d.Results {
		if r.Data != nil {
			res = append(res, *r.Data)
		}
	}
	return res
}
