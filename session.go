package jsonapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bjornharrtell/json-api/config"
	"github.com/bjornharrtell/json-api/logging"
	"github.com/google/uuid"
)

// Page holds pagination parameters passed through to the server.
type Page struct {
	Size   int
	Number int
}

// Options are the per-request options recognized by a Transport. All fields
// are passed through to the server unmodified; this layer performs no
// validation of field sets, sort order, or filter semantics.
type Options struct {
	// Fields maps resource types to the attribute names requested for them
	// (sparse fieldsets).
	Fields map[string][]string

	// Page is the pagination request, if any.
	Page *Page

	// Include lists relationship paths to side-load.
	Include []string

	// Filter is an opaque filter expression.
	Filter string

	// Header holds extra headers for the request. Caller headers win over
	// any defaults the transport is configured with.
	Header http.Header
}

// Transport issues requests against a JSON:API endpoint and parses response
// bodies into documents. The transport sub-package provides the HTTP
// implementation; a Session depends only on this contract.
//
// Any non-success response must surface as an error wrapping ErrTransport,
// carrying the status and, when the body parsed as a JSON:API error document,
// that document's errors. Cancellation is the context; a canceled request
// returns its error without any partial document.
type Transport interface {
	// FetchDocument fetches the document for a resource type. An empty id
	// means the whole collection; a non-empty id means that single resource
	// plus its included pool.
	FetchDocument(ctx context.Context, typ, id string, opts *Options, params map[string]string) (*Document, error)

	// FetchHasMany fetches the document of a to-many relationship of the
	// identified resource. Its data member is an array.
	FetchHasMany(ctx context.Context, typ, id, relationship string, opts *Options, params map[string]string) (*Document, error)

	// FetchBelongsTo fetches the document of a to-one relationship of the
	// identified resource. Its data member is a single resource or null.
	FetchBelongsTo(ctx context.Context, typ, id, relationship string, opts *Options, params map[string]string) (*Document, error)

	// Post sends a single resource to be created or updated and returns the
	// server's document.
	Post(ctx context.Context, res Resource, opts *Options) (*Document, error)

	// PostAtomic sends an atomic operations batch. A nil result document
	// with a nil error is a legitimate outcome and signals a no-content
	// batch response.
	PostAtomic(ctx context.Context, doc AtomicDocument, opts *Options) (*AtomicResultDocument, error)
}

// AtomicOperation pairs a record with the operation to perform on it inside
// an atomic batch.
type AtomicOperation struct {
	Op     OpType
	Record *Record
}

// Session is the normalization layer: it owns the immutable model definitions
// and converts between wire documents and record graphs, delegating request
// mechanics to its Transport.
//
// A Session holds no mutable state across calls beyond the definition tables
// established at construction, so it is safe for concurrent use. Records it
// returns are caller-owned; the Session keeps no reference to them.
type Session struct {
	models      map[string]Model
	t           Transport
	convertCase bool
	log         logging.Logger
}

// New creates a Session over the given transport and model definitions. cfg
// may be nil, in which case defaults are used (no name conversion, no
// logging). Model definition problems are reported here, before any request
// can be made.
func New(t Transport, models []Model, cfg *config.Config) (*Session, error) {
	if t == nil {
		return nil, NewError("transport must not be nil")
	}

	if cfg == nil {
		cfg = &config.Config{}
	} else {
		cfgCopy := new(config.Config)
		*cfgCopy = *cfg
		cfg = cfgCopy
	}
	*cfg = cfg.FillDefaults()

	table, err := buildModelTable(models)
	if err != nil {
		return nil, err
	}

	var logger logging.Logger = logging.NoOpLogger{}
	if cfg.Log.Enabled {
		logger, err = cfg.Log.Create()
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
	}

	return &Session{
		models:      table,
		t:           t,
		convertCase: cfg.ConvertCase,
		log:         logger,
	}, nil
}

// normalizeName maps a wire attribute or relationship key to its in-memory
// name per the configured policy.
func (s *Session) normalizeName(name string) string {
	if !s.convertCase {
		return name
	}
	return camelCase(name)
}

func (s *Session) model(typ string) (Model, error) {
	m, ok := s.models[typ]
	if !ok {
		return Model{}, NewError(fmt.Sprintf("type %q", typ), ErrUnknownType)
	}
	return m, nil
}

// decodeResource converts a wire resource to a bare record: identity fields
// plus attributes under normalized names. Relationships are not populated;
// that is the graph builder's second pass.
func (s *Session) decodeResource(res *Resource) *Record {
	rec := NewRecord(res.Type)
	rec.ID = res.ID
	rec.LocalID = res.LocalID

	for key, val := range res.Attributes {
		// id, lid and type are identity metadata, never attributes, even if
		// a server echoes them inside the attributes map
		switch key {
		case "id", "lid", "type":
			continue
		}
		rec.Set(s.normalizeName(key), val)
	}

	return rec
}

// encodeRecord converts a record to its wire resource. Properties named in
// the model's relationship definitions become relationship linkage built from
// identifier pairs only (local id preferred, so that not-yet-persisted
// related records stay referencable inside an atomic batch); every other
// property becomes a plain attribute. Unset properties are absent from the
// record and therefore omitted; properties set to nil encode as null.
func (s *Session) encodeRecord(rec *Record) (Resource, error) {
	model, err := s.model(rec.Type)
	if err != nil {
		return Resource{}, err
	}

	res := Resource{
		ID:      rec.ID,
		LocalID: rec.LocalID,
		Type:    rec.Type,
	}

	for _, name := range rec.Properties() {
		val := rec.Get(name)

		def, isRel := model.Relationships[name]
		if !isRel {
			if res.Attributes == nil {
				res.Attributes = map[string]any{}
			}
			res.Attributes[name] = val
			continue
		}

		if res.Relationships == nil {
			res.Relationships = map[string]Relationship{}
		}

		switch def.Kind {
		case BelongsTo:
			if val == nil {
				res.Relationships[name] = Relationship{Present: true}
				continue
			}
			related := rec.Related(name)
			if related == nil {
				return Resource{}, NewError(fmt.Sprintf("%s.%s: value is not a record", rec.Type, name), ErrBadDocument)
			}
			res.Relationships[name] = ToOne(related.Identifier())
		case HasMany:
			relateds := rec.RelatedAll(name)
			if relateds == nil && val != nil {
				return Resource{}, NewError(fmt.Sprintf("%s.%s: value is not a record list", rec.Type, name), ErrBadDocument)
			}
			idents := make([]ResourceIdentifier, len(relateds))
			for i, related := range relateds {
				idents[i] = related.Identifier()
			}
			res.Relationships[name] = ToMany(idents)
		default:
			// unreachable given the closed Kind set enforced at construction
			return Resource{}, NewError(fmt.Sprintf("%s.%s: kind %v", rec.Type, name, def.Kind), ErrBadKind)
		}
	}

	return res, nil
}

// recordIndex is a two-level record index, type first and then id. The outer
// level exists because identity is the (type, id) pair; two resources of
// different types sharing an id string are distinct records.
type recordIndex map[string]map[string]*Record

func (idx recordIndex) add(typ, key string, rec *Record) {
	if key == "" {
		return
	}
	byID, ok := idx[typ]
	if !ok {
		byID = map[string]*Record{}
		idx[typ] = byID
	}
	byID[key] = rec
}

func (idx recordIndex) get(typ, key string) *Record {
	return idx[typ][key]
}

// buildGraph runs the two-pass construction over a document's top-level data
// and included pool. Pass one materializes a bare record for every resource,
// included pool first, into two separate indexes. Pass two walks every
// resource's relationships and wires direct references between the records.
//
// The separation is what makes cyclic graphs safe: by the time pass two runs,
// every record it could possibly reference already exists, so no recursion
// happens at all. A record from the included pool is indexed once and reused
// wherever referenced, so shared references point at the same record.
func (s *Session) buildGraph(doc *Document) []*Record {
	included := recordIndex{}
	primary := recordIndex{}

	includedRecs := make([]*Record, len(doc.Included))
	for i := range doc.Included {
		res := &doc.Included[i]
		rec := s.decodeResource(res)
		includedRecs[i] = rec
		included.add(res.Type, res.Identifier().Key(), rec)
	}

	records := make([]*Record, len(doc.Data))
	for i := range doc.Data {
		res := &doc.Data[i]
		// a top-level resource that also appears in the included pool must
		// resolve to one record, not two copies
		rec := included.get(res.Type, res.Identifier().Key())
		if rec == nil {
			rec = s.decodeResource(res)
		}
		records[i] = rec
		primary.add(res.Type, res.Identifier().Key(), rec)
	}

	for i := range doc.Data {
		s.wireRelationships(&doc.Data[i], records[i], primary, included)
	}
	for i := range doc.Included {
		s.wireRelationships(&doc.Included[i], includedRecs[i], primary, included)
	}

	return records
}

// wireRelationships is pass two of the graph build for a single resource.
// Linkage entries whose data member is absent are skipped entirely: a
// links-only relationship is not resolvable from this payload, which is not
// the same as known-empty. Referenced identifiers whose type does not match
// the definition's target, and identifiers that resolve to no materialized
// record, are dropped silently.
func (s *Session) wireRelationships(res *Resource, rec *Record, primary, included recordIndex) {
	model, ok := s.models[res.Type]
	if !ok {
		return
	}

	resolve := func(ident ResourceIdentifier) *Record {
		if found := primary.get(ident.Type, ident.Key()); found != nil {
			return found
		}
		return included.get(ident.Type, ident.Key())
	}

	for wireName, rel := range res.Relationships {
		if !rel.Present {
			continue
		}

		name := s.normalizeName(wireName)
		def, ok := model.Relationships[name]
		if !ok {
			// tolerated for forward compatibility, not an error
			continue
		}

		switch def.Kind {
		case HasMany:
			out := []*Record{}
			for _, ident := range rel.Data {
				if ident.Type != def.Type {
					continue
				}
				if target := resolve(ident); target != nil {
					out = append(out, target)
				}
			}
			rec.Set(name, out)
		case BelongsTo:
			if len(rel.Data) == 0 {
				// data: null, known to be empty
				rec.Set(name, nil)
				continue
			}
			ident := rel.Data[0]
			if ident.Type != def.Type {
				continue
			}
			if target := resolve(ident); target != nil {
				rec.Set(name, target)
			}
		}
	}
}

// FindAll fetches the collection document for a resource type and builds its
// record graph. The returned document is the raw wire document, for access to
// meta, links and errors; the records are the normalized top-level data.
func (s *Session) FindAll(ctx context.Context, typ string, opts *Options, params map[string]string) (*Document, []*Record, error) {
	if _, err := s.model(typ); err != nil {
		return nil, nil, err
	}

	s.log.Tracef("find all %q", typ)
	doc, err := s.t.FetchDocument(ctx, typ, "", opts, params)
	if err != nil {
		return nil, nil, err
	}

	return doc, s.buildGraph(doc), nil
}

// Find fetches a single resource by id and builds its record graph. A
// successful fetch that yields no record is ErrNotFound; that condition is
// distinct from a transport-level 404, which surfaces as an ErrTransport
// error instead.
func (s *Session) Find(ctx context.Context, typ, id string, opts *Options, params map[string]string) (*Record, error) {
	if _, err := s.model(typ); err != nil {
		return nil, err
	}

	s.log.Tracef("find %q id=%s", typ, id)
	doc, err := s.t.FetchDocument(ctx, typ, id, opts, params)
	if err != nil {
		return nil, err
	}

	records := s.buildGraph(doc)
	if len(records) == 0 {
		return nil, NewError(fmt.Sprintf("%s %q", typ, id), ErrNotFound)
	}
	return records[0], nil
}

// FindRelated fetches the named relationship of the given record, decodes the
// result, assigns it onto the record under the relationship name, and returns
// the raw document. The relationship must be defined for the record's type;
// the record's type itself must be a defined model.
//
// The result resources are flat-decoded rather than graph-built; a
// relationship fetch is not expected to carry further nested includes.
func (s *Session) FindRelated(ctx context.Context, rec *Record, name string, opts *Options, params map[string]string) (*Document, error) {
	model, err := s.model(rec.Type)
	if err != nil {
		return nil, err
	}
	if model.Relationships == nil {
		return nil, NewError(fmt.Sprintf("type %q has no relationships", rec.Type), ErrUnknownRelationship)
	}
	def, ok := model.Relationships[name]
	if !ok {
		return nil, NewError(fmt.Sprintf("%s.%s", rec.Type, name), ErrUnknownRelationship)
	}

	s.log.Tracef("find related %s.%s id=%s", rec.Type, name, rec.ID)

	switch def.Kind {
	case BelongsTo:
		doc, err := s.t.FetchBelongsTo(ctx, rec.Type, rec.ID, name, opts, params)
		if err != nil {
			return nil, err
		}
		if res := doc.First(); res != nil {
			rec.Set(name, s.decodeResource(res))
		} else if doc.HasData {
			rec.Set(name, nil)
		}
		return doc, nil
	case HasMany:
		doc, err := s.t.FetchHasMany(ctx, rec.Type, rec.ID, name, opts, params)
		if err != nil {
			return nil, err
		}
		out := make([]*Record, 0, len(doc.Data))
		for i := range doc.Data {
			out = append(out, s.decodeResource(&doc.Data[i]))
		}
		rec.Set(name, out)
		return doc, nil
	default:
		return nil, NewError(fmt.Sprintf("%s.%s: kind %v", rec.Type, name, def.Kind), ErrBadKind)
	}
}

// CreateRecord creates a new record of the given type from the supplied
// properties, without sending anything to the server. The type must be a
// defined model. Property keys are normalized under the same policy as
// decoding, so a created record and a decoded one always carry identical
// keys. The reserved keys "id", "lid" and "type" populate the identity fields
// instead of properties; when neither an id nor a lid is supplied, a
// generated unique id is assigned.
func (s *Session) CreateRecord(typ string, props map[string]any) (*Record, error) {
	if _, err := s.model(typ); err != nil {
		return nil, err
	}

	rec := NewRecord(typ)
	for key, val := range props {
		switch key {
		case "id":
			str, ok := val.(string)
			if !ok {
				return nil, NewError(fmt.Sprintf("id must be a string, got %T", val))
			}
			rec.ID = str
		case "lid":
			str, ok := val.(string)
			if !ok {
				return nil, NewError(fmt.Sprintf("lid must be a string, got %T", val))
			}
			rec.LocalID = str
		case "type":
			// identity comes from the typ argument
			continue
		default:
			rec.Set(s.normalizeName(key), val)
		}
	}

	if rec.ID == "" && rec.LocalID == "" {
		rec.ID = uuid.NewString()
	}

	return rec, nil
}

// SaveRecord encodes the record, sends it as a single create or update
// request, and returns a fresh record decoded from the server's response. If
// the server answers without a resource, the record passed in is returned
// unchanged.
//
// Attribute keys are written exactly as stored on the record, which already
// carries in-memory names; the write path deliberately does not reverse the
// read-side name conversion.
func (s *Session) SaveRecord(ctx context.Context, rec *Record, opts *Options) (*Record, error) {
	res, err := s.encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	s.log.Tracef("save %s id=%s lid=%s", rec.Type, rec.ID, rec.LocalID)
	doc, err := s.t.Post(ctx, res, opts)
	if err != nil {
		return nil, err
	}

	if got := doc.First(); got != nil {
		return s.decodeResource(got), nil
	}
	return rec, nil
}

// SaveAtomic encodes the given operations as one atomic batch, sends it in a
// single request, and returns the records built from the result resources.
// Add and update operations carry the full encoded resource; remove
// operations carry only a ref to their target. Records holding a local id
// are referenced by it throughout the batch, so a record created in one
// operation can be the relationship target of a later one.
//
// A no-content batch response yields an empty, non-nil record slice with a
// nil error; only failures produce an error.
func (s *Session) SaveAtomic(ctx context.Context, ops []AtomicOperation, opts *Options) ([]*Record, error) {
	batch := AtomicDocument{Operations: make([]Operation, 0, len(ops))}

	for i, op := range ops {
		if op.Record == nil {
			return nil, NewError(fmt.Sprintf("operation %d: nil record", i))
		}

		switch op.Op {
		case OpRemove:
			ident := op.Record.Identifier()
			batch.Operations = append(batch.Operations, Operation{
				Op:  op.Op,
				Ref: &Ref{Type: ident.Type, ID: ident.ID, LocalID: ident.LocalID},
			})
		case OpAdd, OpUpdate:
			res, err := s.encodeRecord(op.Record)
			if err != nil {
				return nil, NewError(fmt.Sprintf("operation %d", i), err)
			}
			batch.Operations = append(batch.Operations, Operation{Op: op.Op, Data: &res})
		default:
			return nil, NewError(fmt.Sprintf("operation %d: op %q", i, op.Op))
		}
	}

	s.log.Tracef("save atomic batch of %d operations", len(batch.Operations))
	result, err := s.t.PostAtomic(ctx, batch, opts)
	if err != nil {
		return nil, err
	}
	if result == nil {
		// no-content batch; a valid outcome, not a failure
		return []*Record{}, nil
	}

	return s.buildGraph(CollectionDocument(result.Resources())), nil
}
