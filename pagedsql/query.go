package pagedsql

import "strings"

type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// DefaultSortField is used when PagedQuery.SortField is blank.
const DefaultSortField = "id"

// PagedQuery describes one page of a filtered, sorted listing.
//
// The boundary subquery always projects id. Results are exact only when the
// sort field orders rows consistently with id, i.e. sorting by id itself or by
// a column whose ties are broken by id in the same direction.
type PagedQuery struct {
	Filters       []FilterRule `json:"filters"`
	SortField     string       `json:"sortField"`
	SortDirection Direction    `json:"sortDirection"`
	PageIndex     int          `json:"pageIndex"` // 1-based
	PageSize      int          `json:"pageSize"`
}

// PagedQueryParam binds a PagedQuery to a column list and relation.
type PagedQueryParam struct {
	Select string     `json:"select"`
	From   string     `json:"from"`
	Query  PagedQuery `json:"query"`
}

// sort resolves the effective sort. A blank field means id DESC regardless
// of the requested direction.
func (q PagedQuery) sort() (string, Direction) {
	field := strings.TrimSpace(q.SortField)
	if field == "" {
		return DefaultSortField, DESC
	}
	if strings.EqualFold(string(q.SortDirection), string(ASC)) {
		return field, ASC
	}
	return field, DESC
}

func (q PagedQuery) page() int {
	if q.PageIndex < 1 {
		return 1
	}
	return q.PageIndex
}

// Offset is the number of rows before the requested page.
func (q PagedQuery) Offset() int {
	return (q.page() - 1) * q.PageSize
}
