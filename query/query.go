// Package query holds the read paths that fetch whole aggregates in a fixed
// number of statements. Each function runs inside a scoped session: pass one
// explicitly, or pass nil to use the session carried by ctx (see
// db.NewContext).
//
// Related rows are loaded the way the schema registry classifies the edge.
// To-one edges ride on the main statement as a LEFT JOIN; to-many edges are
// fetched by one extra statement per edge, batched over all parents with
// IN (...). No function issues a statement per returned row.
package query

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cms-dev/cms/v2/db"
	"github.com/cms-dev/cms/v2/model"
)

// session resolves the session to run in and returns its handle bound to
// ctx.
func session(ctx context.Context, s *db.ScopedSession) (*gorm.DB, error) {
	s, err := db.Resolve(ctx, s)
	if err != nil {
		return nil, err
	}
	tx, err := s.DB()
	if err != nil {
		return nil, err
	}
	return tx.WithContext(ctx), nil
}

// eager adds the loading of the named edges of entity to tx.
func eager(tx *gorm.DB, entity string, edges ...string) *gorm.DB {
	reg := model.DefaultRegistry()
	for _, name := range edges {
		edge, ok := reg.Edge(entity, name)
		if !ok {
			panic(fmt.Sprintf("query: %s has no edge %q", entity, name))
		}
		switch edge.Cardinality {
		case model.ToOne:
			tx = tx.Joins(name)
		case model.ToMany:
			order := edge.OrderBy
			tx = tx.Preload(name, func(tx *gorm.DB) *gorm.DB {
				if order != "" {
					tx = tx.Order(order)
				}
				return tx.Order("id")
			})
		}
	}
	return tx
}

// find runs tx into a fresh slice, which is empty rather than nil when
// nothing matches.
func find[T any](ctx context.Context, tx *gorm.DB, what string) ([]T, error) {
	out := []T{}
	if err := tx.Find(&out).Error; err != nil {
		return nil, db.Translate(ctx, err, "loading "+what)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// unmatchedToken clears the zero Token a LEFT JOIN without a match can leave
// behind.
func unmatchedToken(s *model.Submission) {
	if s.Token != nil && s.Token.ID == 0 {
		s.Token = nil
	}
}
