package pagedsql

import (
	"strconv"
	"strings"
)

// BuildPageQuery renders the deep-pagination page query:
//
//	SELECT <select> FROM <from> WHERE <predicates> AND id >= (SELECT id FROM <from> WHERE <predicates> ORDER BY <sort> LIMIT <offset>,1) ORDER BY <sort> LIMIT <pageSize>
//
// Values are interpolated between single quotes without escaping. The output
// is only safe for trusted input; use Build for anything user-supplied.
func BuildPageQuery(p PagedQueryParam) string {
	preds := literalPredicates(p.Query.Filters)
	field, dir := p.Query.sort()
	orderBy := " ORDER BY " + field + " " + string(dir)

	var sub strings.Builder
	sub.WriteString("SELECT id FROM ")
	sub.WriteString(p.From)
	if preds != "" {
		sub.WriteString(" WHERE ")
		sub.WriteString(preds)
	}
	sub.WriteString(orderBy)
	sub.WriteString(" LIMIT ")
	sub.WriteString(strconv.Itoa(p.Query.Offset()))
	sub.WriteString(",1")

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(p.Select)
	b.WriteString(" FROM ")
	b.WriteString(p.From)
	b.WriteString(" WHERE ")
	if preds != "" {
		b.WriteString(preds)
		b.WriteString(" AND ")
	}
	b.WriteString("id >= (")
	b.WriteString(sub.String())
	b.WriteString(")")
	b.WriteString(orderBy)
	b.WriteString(" LIMIT ")
	b.WriteString(strconv.Itoa(p.Query.PageSize))
	return b.String()
}

// BuildCountQuery renders SELECT COUNT(id) FROM <from> WHERE <predicates>.
// It carries the same injection caveat as BuildPageQuery.
func BuildCountQuery(p PagedQueryParam) string {
	preds := literalPredicates(p.Query.Filters)
	if preds == "" {
		return "SELECT COUNT(id) FROM " + p.From
	}
	return "SELECT COUNT(id) FROM " + p.From + " WHERE " + preds
}

func literalPredicates(rules []FilterRule) string {
	var b strings.Builder
	for i, r := range active(rules) {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(r.Key)
		b.WriteString(r.Operate.SQL())
		b.WriteString("'")
		b.WriteString(r.Value)
		b.WriteString("'")
	}
	return b.String()
}
