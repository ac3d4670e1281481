package main

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/castore/pagedsql"
)

// pageFlags collects a pagedsql.PagedQueryParam from the command line.
type pageFlags struct {
	sel     string
	from    string
	filters []string
	sort    string
	dir     string
	page    int
	size    int
}

func addPageFlags(cmd *cobra.Command) *pageFlags {
	f := &pageFlags{}
	fs := cmd.Flags()
	fs.StringVar(&f.sel, "select", "*", "column list")
	fs.StringVar(&f.from, "from", "", "table or view")
	fs.StringArrayVarP(&f.filters, "filter", "f", nil, "predicate key:operator:value, repeatable")
	fs.StringVar(&f.sort, "sort", "", "sort field (blank means id DESC)")
	fs.StringVar(&f.dir, "dir", string(pagedsql.DESC), "sort direction ASC|DESC")
	fs.IntVar(&f.page, "page", 1, "1-based page index")
	fs.IntVar(&f.size, "size", 20, "page size")
	_ = cmd.MarkFlagRequired("from")
	return f
}

func (f *pageFlags) param() (pagedsql.PagedQueryParam, error) {
	rules := make([]pagedsql.FilterRule, 0, len(f.filters))
	for _, s := range f.filters {
		r, err := pagedsql.ParseFilter(s)
		if err != nil {
			return pagedsql.PagedQueryParam{}, err
		}
		rules = append(rules, r)
	}
	return pagedsql.PagedQueryParam{
		Select: f.sel,
		From:   f.from,
		Query: pagedsql.PagedQuery{
			Filters:       rules,
			SortField:     f.sort,
			SortDirection: pagedsql.Direction(f.dir),
			PageIndex:     f.page,
			PageSize:      f.size,
		},
	}, nil
}
