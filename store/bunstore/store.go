// Package bunstore implements castore.Store on uptrace/bun.
//
// Entities are plain bun models embedding castore.Model:
//
//	type User struct {
//	    bun.BaseModel `bun:"table:sys_user"`
//	    castore.Model
//	    Name string `bun:"name"`
//	}
//
//	users := bunstore.New[User](db)
package bunstore

import (
	"context"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/unkn0wn-root/castore"
	"github.com/unkn0wn-root/castore/pagedsql"
)

// Store is a castore.Store[P] over the table of E.
type Store[E any, P interface {
	*E
	castore.Record
}] struct {
	db      bun.IDB
	table   *schema.Table
	columns map[string]string // Go field name -> column
}

var _ castore.Store[*castore.Model] = (*Store[castore.Model, *castore.Model])(nil)

func New[E any, P interface {
	*E
	castore.Record
}](db *bun.DB) *Store[E, P] {
	t := db.Table(reflect.TypeOf((*E)(nil)).Elem())
	cols := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		cols[f.GoName] = f.Name
	}
	return &Store[E, P]{db: db, table: t, columns: cols}
}

// WithTx returns a Store running its queries on tx.
func (s *Store[E, P]) WithTx(tx bun.Tx) *Store[E, P] {
	cp := *s
	cp.db = tx
	return &cp
}

func (s *Store[E, P]) SelectByID(ctx context.Context, id int64) (P, error) {
	rec := P(new(E))
	err := s.db.NewSelect().Model(rec).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return rec, nil
}

func (s *Store[E, P]) Insert(ctx context.Context, rec P) error {
	res, err := s.db.NewInsert().Model(rec).Exec(ctx)
	if err != nil {
		return mapErr(err)
	}
	if m := rec.GetModel(); m.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			m.ID = id
		}
	}
	return nil
}

// UpdateByID writes only the patch's fields.
func (s *Store[E, P]) UpdateByID(ctx context.Context, patch castore.Patch[P]) error {
	if len(patch.Fields) == 0 {
		return nil
	}
	cols := make([]string, 0, len(patch.Fields))
	for _, f := range patch.Fields {
		col, ok := s.columns[f]
		if !ok {
			return fmt.Errorf("bunstore: %s has no column for field %q", s.table.Name, f)
		}
		cols = append(cols, col)
	}
	res, err := s.db.NewUpdate().
		Model(patch.Record).
		Column(cols...).
		Where("id = ?", patch.ID).
		Exec(ctx)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return castore.ErrNotFound
	}
	return nil
}

func (s *Store[E, P]) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*E)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return castore.ErrNotFound
	}
	return nil
}

// SelectList applies active filters as bound predicates, ordered by id.
func (s *Store[E, P]) SelectList(ctx context.Context, filters []pagedsql.FilterRule) ([]P, error) {
	var out []P
	q := s.db.NewSelect().Model(&out)
	for _, r := range filters {
		if !r.Active() {
			continue
		}
		if err := r.Validate(); err != nil {
			return nil, &pagedsql.ValidationError{Err: err}
		}
		q = q.Where("? "+r.Operate.SQL()+" ?", bun.Ident(r.Key), r.Value)
	}
	if err := q.OrderExpr("?TableAlias.id ASC").Scan(ctx); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store[E, P]) QueryPagedList(ctx context.Context, param pagedsql.PagedQueryParam) ([]map[string]any, error) {
	st, err := pagedsql.Build(param)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := s.db.NewRaw(st.PageSQL, st.PageArgs...).Scan(ctx, &rows); err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

func (s *Store[E, P]) QueryTotalCount(ctx context.Context, param pagedsql.PagedQueryParam) (int64, error) {
	st, err := pagedsql.Build(param)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.NewRaw(st.CountSQL, st.CountArgs...).Scan(ctx, &n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

// Table is the table name bun derived for E.
func (s *Store[E, P]) Table() string { return s.table.Name }
