package castore

import (
	"context"

	"github.com/unkn0wn-root/castore/pagedsql"
)

// Store is the authoritative relational store behind the cache.
//
// SelectByID reports absence with ErrNotFound (sql.ErrNoRows is accepted too).
// Insert assigns the generated id to rec. Writes violating a uniqueness
// constraint must return an error matching ErrDuplicate.
type Store[T Record] interface {
	SelectByID(ctx context.Context, id int64) (T, error)
	Insert(ctx context.Context, rec T) error
	UpdateByID(ctx context.Context, patch Patch[T]) error
	DeleteByID(ctx context.Context, id int64) error
	SelectList(ctx context.Context, filters []pagedsql.FilterRule) ([]T, error)
	QueryPagedList(ctx context.Context, param pagedsql.PagedQueryParam) ([]map[string]any, error)
	QueryTotalCount(ctx context.Context, param pagedsql.PagedQueryParam) (int64, error)
}

// Patch is a partial update: only Fields (Go field names) of Record are written.
type Patch[T Record] struct {
	ID     int64
	Record T
	Fields []string
}

// PagedResult is one page of rows plus the total number of matching rows.
type PagedResult struct {
	TotalCount int64            `json:"totalCount"`
	Items      []map[string]any `json:"items"`
}
