package pagedsql

import "strings"

// Statement is a parameterized page/count pair. Placeholders are '?'; stores
// on other bind styles rebind them (bun does this per dialect).
type Statement struct {
	PageSQL   string
	PageArgs  []any
	CountSQL  string
	CountArgs []any
}

// Build validates p and renders both queries with every value bound as an
// argument. The boundary comparator follows the sort direction: >= for ASC,
// <= for DESC.
func Build(p PagedQueryParam) (Statement, error) {
	if err := Validate(p); err != nil {
		return Statement{}, err
	}
	rules := active(p.Query.Filters)
	field, dir := p.Query.sort()

	var where strings.Builder
	args := make([]any, 0, len(rules))
	for i, r := range rules {
		if i > 0 {
			where.WriteString(" AND ")
		}
		where.WriteString(r.Key)
		where.WriteString(" ")
		where.WriteString(r.Operate.SQL())
		where.WriteString(" ?")
		args = append(args, r.Value)
	}
	preds := where.String()
	orderBy := " ORDER BY " + field + " " + string(dir)
	cmp := " >= "
	if dir == DESC {
		cmp = " <= "
	}

	var page strings.Builder
	page.WriteString("SELECT ")
	page.WriteString(p.Select)
	page.WriteString(" FROM ")
	page.WriteString(p.From)
	page.WriteString(" WHERE ")
	if preds != "" {
		page.WriteString(preds)
		page.WriteString(" AND ")
	}
	page.WriteString("id")
	page.WriteString(cmp)
	page.WriteString("(SELECT id FROM ")
	page.WriteString(p.From)
	if preds != "" {
		page.WriteString(" WHERE ")
		page.WriteString(preds)
	}
	page.WriteString(orderBy)
	page.WriteString(" LIMIT 1 OFFSET ?)")
	page.WriteString(orderBy)
	page.WriteString(" LIMIT ?")

	pageArgs := make([]any, 0, 2*len(args)+2)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, p.Query.Offset(), p.Query.PageSize)

	count := "SELECT COUNT(id) FROM " + p.From
	if preds != "" {
		count += " WHERE " + preds
	}
	return Statement{
		PageSQL:   page.String(),
		PageArgs:  pageArgs,
		CountSQL:  count,
		CountArgs: append([]any(nil), args...),
	}, nil
}
