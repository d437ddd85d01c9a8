package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

// Cardinality is how many rows sit at the far end of an edge.
type Cardinality int

const (
	ToOne Cardinality = iota
	ToMany
)

func (c Cardinality) String() string {
	switch c {
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	default:
		return "unknown"
	}
}

// Edge is one relationship field of an entity.
type Edge struct {
	// Name is the Go field name, as Joins and Preload expect it.
	Name        string
	From        string
	To          string
	Cardinality Cardinality
	// Owning is set when From is the parent: rows of To hold the foreign key
	// and cannot exist without the From row.
	Owning bool
	// Cascade is set when deleting the parent row deletes the child rows.
	// On an owning edge the parent is From; otherwise it is To, so deleting
	// the To row deletes the From row.
	Cascade bool
	// OrderBy is the column a to-many collection is kept sorted by.
	OrderBy string
}

// Entity describes one table of the schema.
type Entity struct {
	Name       string
	Table      string
	PrimaryKey []string
	edges      []Edge
}

// Edges returns the entity's relationships sorted by name.
func (e *Entity) Edges() []Edge {
	out := make([]Edge, len(e.edges))
	copy(out, e.edges)
	return out
}

// Edge returns the relationship with the given field name.
func (e *Entity) Edge(name string) (Edge, bool) {
	for _, edge := range e.edges {
		if edge.Name == name {
			return edge, true
		}
	}
	return Edge{}, false
}

// Registry is the entity and relationship graph of the schema. It is
// immutable once built and safe for concurrent use.
type Registry struct {
	entities map[string]*Entity
	order    []string
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry of Models, built on first use. It
// panics if the models cannot be parsed, which only a broken struct tag can
// cause.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry(Models()...)
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// NewRegistry builds a registry from the given models using gorm's schema
// parser, so the edges it reports are exactly what gorm will query.
func NewRegistry(models ...interface{}) (*Registry, error) {
	cache := &sync.Map{}
	namer := schema.NamingStrategy{}

	schemas := make([]*schema.Schema, 0, len(models))
	for _, m := range models {
		s, err := schema.Parse(m, cache, namer)
		if err != nil {
			return nil, fmt.Errorf("parsing %T: %w", m, err)
		}
		schemas = append(schemas, s)
	}

	// Constraints are declared on one side of a relationship only, so index
	// them by the child table and its foreign key columns.
	onDelete := map[string]string{}
	for _, s := range schemas {
		for _, rel := range s.Relationships.Relations {
			if c := rel.ParseConstraint(); c != nil && c.OnDelete != "" {
				onDelete[constraintKey(c.Schema.Table, c.ForeignKeys)] = strings.ToUpper(c.OnDelete)
			}
		}
	}

	r := &Registry{entities: make(map[string]*Entity, len(schemas))}
	for _, s := range schemas {
		e := &Entity{Name: s.Name, Table: s.Table}
		for _, f := range s.PrimaryFields {
			e.PrimaryKey = append(e.PrimaryKey, f.DBName)
		}
		for name, rel := range s.Relationships.Relations {
			// gorm also files a has-one or has-many under the child schema
			// as "_Parent_Field"; that edge belongs to the parent.
			if strings.HasPrefix(name, "_") || rel.Schema != s {
				continue
			}
			e.edges = append(e.edges, newEdge(s, name, rel, onDelete))
		}
		sort.Slice(e.edges, func(i, j int) bool { return e.edges[i].Name < e.edges[j].Name })
		r.entities[e.Name] = e
		r.order = append(r.order, e.Name)
	}
	return r, nil
}

func newEdge(s *schema.Schema, name string, rel *schema.Relationship, onDelete map[string]string) Edge {
	edge := Edge{
		Name:    name,
		From:    s.Name,
		To:      rel.FieldSchema.Name,
		OrderBy: rel.Field.Tag.Get("order"),
	}
	switch rel.Type {
	case schema.HasOne, schema.BelongsTo:
		edge.Cardinality = ToOne
	default:
		edge.Cardinality = ToMany
	}

	fks := make([]*schema.Field, 0, len(rel.References))
	for _, ref := range rel.References {
		if ref.OwnPrimaryKey || rel.Type != schema.Many2Many {
			fks = append(fks, ref.ForeignKey)
		}
	}
	child := s.Table
	if rel.Type == schema.HasOne || rel.Type == schema.HasMany {
		edge.Owning = true
		child = rel.FieldSchema.Table
	}
	edge.Cascade = onDelete[constraintKey(child, fks)] == "CASCADE"
	return edge
}

func constraintKey(table string, fields []*schema.Field) string {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.DBName)
	}
	sort.Strings(cols)
	return table + "(" + strings.Join(cols, ",") + ")"
}

// Entity returns the entity with the given Go type name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// EntityOf returns the entity of a model value or pointer.
func (r *Registry) EntityOf(v interface{}) (*Entity, bool) {
	t := reflect.TypeOf(v)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil {
		return nil, false
	}
	return r.Entity(t.Name())
}

// Entities returns all entities in model order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entities[name])
	}
	return out
}

// Edge returns the relationship field of entity.
func (r *Registry) Edge(entity, field string) (Edge, bool) {
	e, ok := r.entities[entity]
	if !ok {
		return Edge{}, false
	}
	return e.Edge(field)
}
