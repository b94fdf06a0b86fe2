package jsonapi

import (
	"fmt"
	"strings"
)

// Kind is the cardinality of a relationship. It is a closed two-variant set;
// the zero value is not a valid kind so that an unset definition is
// detectable.
type Kind int

const (
	KindUndefined Kind = iota
	BelongsTo
	HasMany
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case BelongsTo:
		return "belongs-to"
	case HasMany:
		return "has-many"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind returns the Kind named by s, matched case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case BelongsTo.String():
		return BelongsTo, nil
	case HasMany.String():
		return HasMany, nil
	default:
		return KindUndefined, fmt.Errorf("unknown Kind %q", s)
	}
}

// Rel is the definition of one relationship of a model: the resource type on
// the far side and the cardinality.
type Rel struct {
	// Type is the resource type of the related records. Referenced
	// identifiers of any other type are discarded during graph building.
	Type string

	// Kind is the cardinality of the relationship.
	Kind Kind
}

// Model defines one resource type the client knows how to normalize.
// Relationship definitions are keyed by the in-memory (normalized) name; wire
// relationship keys are normalized before lookup. A wire relationship with no
// matching definition is silently ignored, which keeps old clients compatible
// with servers that have since grown new relationships.
type Model struct {
	// Type is the JSON:API resource type, e.g. "articles".
	Type string

	// Relationships maps normalized relationship names to their definitions.
	// A model with no relationships may leave it nil.
	Relationships map[string]Rel
}

// buildModelTable indexes the given models by type, rejecting duplicates and
// definitions with missing required parts. All configuration errors surface
// here, at construction time, before any request is made.
func buildModelTable(models []Model) (map[string]Model, error) {
	table := make(map[string]Model, len(models))
	for _, m := range models {
		if m.Type == "" {
			return nil, NewError("model with empty type")
		}
		if _, ok := table[m.Type]; ok {
			return nil, NewError(fmt.Sprintf("duplicate model for type %q", m.Type))
		}
		for name, rel := range m.Relationships {
			if rel.Type == "" {
				return nil, NewError(fmt.Sprintf("model %q: relationship %q: empty target type", m.Type, name))
			}
			if rel.Kind != BelongsTo && rel.Kind != HasMany {
				return nil, NewError(fmt.Sprintf("model %q: relationship %q: kind %v", m.Type, name, rel.Kind), ErrBadKind)
			}
		}
		table[m.Type] = m
	}
	return table, nil
}
