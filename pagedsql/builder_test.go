package pagedsql

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func param(q PagedQuery) PagedQueryParam {
	return PagedQueryParam{Select: "id,name,status", From: "sys_user", Query: q}
}

func TestBuildPageQueryFirstPageNoFilters(t *testing.T) {
	got := BuildPageQuery(param(PagedQuery{SortField: "id", SortDirection: DESC, PageIndex: 1, PageSize: 10}))
	assert.Equal(t,
		"SELECT id,name,status FROM sys_user WHERE id >= (SELECT id FROM sys_user ORDER BY id DESC LIMIT 0,1) ORDER BY id DESC LIMIT 10",
		got)
	assert.Contains(t, got, "LIMIT 0,1")
	assert.True(t, strings.HasSuffix(got, "LIMIT 10"))
}

func TestBuildPageQueryWithFilters(t *testing.T) {
	q := PagedQuery{
		Filters: []FilterRule{
			{Key: "status", Operate: Equal, Value: "1"},
			{Key: "age", Operate: GreaterOrEqual, Value: "18"},
		},
		SortField:     "create_time",
		SortDirection: ASC,
		PageIndex:     3,
		PageSize:      20,
	}
	assert.Equal(t,
		"SELECT id,name,status FROM sys_user WHERE status='1' AND age>='18' AND id >= "+
			"(SELECT id FROM sys_user WHERE status='1' AND age>='18' ORDER BY create_time ASC LIMIT 40,1) "+
			"ORDER BY create_time ASC LIMIT 20",
		BuildPageQuery(param(q)))
}

func TestBlankFilterValueIsOmitted(t *testing.T) {
	q := PagedQuery{
		Filters: []FilterRule{
			{Key: "name", Operate: Equal, Value: "  "},
			{Key: "status", Operate: Equal, Value: "1"},
			{Key: "dept", Operate: Equal},
		},
		PageIndex: 1, PageSize: 5,
	}
	page := BuildPageQuery(param(q))
	assert.NotContains(t, page, "name=")
	assert.NotContains(t, page, "dept")
	assert.Contains(t, page, "status='1'")
	assert.Equal(t, "SELECT COUNT(id) FROM sys_user WHERE status='1'", BuildCountQuery(param(q)))
}

func TestUnknownOperatorRendersAsEqual(t *testing.T) {
	q := PagedQuery{
		Filters:   []FilterRule{{Key: "status", Operate: "like", Value: "1"}},
		PageIndex: 1, PageSize: 5,
	}
	assert.Contains(t, BuildPageQuery(param(q)), "status='1'")
	assert.Equal(t, "SELECT COUNT(id) FROM sys_user WHERE status='1'", BuildCountQuery(param(q)))
}

func TestOperatorTable(t *testing.T) {
	cases := map[Operator]string{
		Equal:            "=",
		NotEqual:         "!=",
		Less:             "<",
		LessOrEqual:      "<=",
		Greater:          ">",
		GreaterOrEqual:   ">=",
		"GreaterOrEqual": ">=",
		"":               "=",
		"between":        "=",
	}
	for op, want := range cases {
		assert.Equal(t, want, op.SQL(), "operator %q", op)
	}
}

func TestCountQueryHasNoPaging(t *testing.T) {
	q := PagedQuery{
		Filters:   []FilterRule{{Key: "status", Operate: NotEqual, Value: "0"}},
		SortField: "name", SortDirection: ASC, PageIndex: 9, PageSize: 50,
	}
	count := BuildCountQuery(param(q))
	assert.Equal(t, "SELECT COUNT(id) FROM sys_user WHERE status!='0'", count)
	assert.NotContains(t, count, "LIMIT")
	assert.NotContains(t, count, "ORDER BY")

	assert.Equal(t, "SELECT COUNT(id) FROM sys_user", BuildCountQuery(param(PagedQuery{PageSize: 1})))
}

func TestBlankSortFieldForcesIDDesc(t *testing.T) {
	got := BuildPageQuery(param(PagedQuery{SortDirection: ASC, PageIndex: 2, PageSize: 10}))
	assert.Contains(t, got, "ORDER BY id DESC LIMIT 10,1")
	assert.True(t, strings.HasSuffix(got, "ORDER BY id DESC LIMIT 10"))
}

func TestPageIndexBelowOneIsFirstPage(t *testing.T) {
	got := BuildPageQuery(param(PagedQuery{PageIndex: 0, PageSize: 10}))
	assert.Contains(t, got, "LIMIT 0,1")
}

func TestBuildParameterizesValues(t *testing.T) {
	q := PagedQuery{
		Filters: []FilterRule{
			{Key: "name", Operate: Equal, Value: "x' OR '1'='1"},
			{Key: "status", Operate: Less, Value: "3"},
		},
		SortField: "id", SortDirection: DESC, PageIndex: 2, PageSize: 25,
	}
	st, err := Build(param(q))
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id,name,status FROM sys_user WHERE name = ? AND status < ? AND id <= "+
			"(SELECT id FROM sys_user WHERE name = ? AND status < ? ORDER BY id DESC LIMIT 1 OFFSET ?) "+
			"ORDER BY id DESC LIMIT ?",
		st.PageSQL)
	assert.Equal(t, []any{"x' OR '1'='1", "3", "x' OR '1'='1", "3", 25, 25}, st.PageArgs)
	assert.Equal(t, "SELECT COUNT(id) FROM sys_user WHERE name = ? AND status < ?", st.CountSQL)
	assert.Equal(t, []any{"x' OR '1'='1", "3"}, st.CountArgs)
	assert.NotContains(t, st.PageSQL, "OR '1'")
}

func TestBuildAscendingUsesGreaterOrEqual(t *testing.T) {
	st, err := Build(param(PagedQuery{SortField: "id", SortDirection: ASC, PageIndex: 1, PageSize: 10}))
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id,name,status FROM sys_user WHERE id >= (SELECT id FROM sys_user ORDER BY id ASC LIMIT 1 OFFSET ?) ORDER BY id ASC LIMIT ?",
		st.PageSQL)
	assert.Equal(t, []any{0, 10}, st.PageArgs)
	assert.Equal(t, "SELECT COUNT(id) FROM sys_user", st.CountSQL)
	assert.Empty(t, st.CountArgs)
}

func TestBuildRejectsUnsafeIdentifiers(t *testing.T) {
	cases := map[string]PagedQuery{
		"filter key": {
			Filters:  []FilterRule{{Key: "1=1; DROP TABLE x; --", Value: "a"}},
			PageSize: 10,
		},
		"sort field": {SortField: "id; DELETE", PageSize: 10},
		"direction":  {SortField: "id", SortDirection: "sideways", PageSize: 10},
		"page size":  {PageSize: 0},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(param(q))
			var ve *ValidationError
			require.Error(t, err)
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestBuildIgnoresInactiveRulesWithBadKeys(t *testing.T) {
	q := PagedQuery{
		Filters:  []FilterRule{{Key: "not a column", Value: ""}},
		PageSize: 10,
	}
	_, err := Build(param(q))
	assert.NoError(t, err)
}

func TestParseFilter(t *testing.T) {
	cases := map[string]FilterRule{
		"status:1":                 {Key: "status", Operate: Equal, Value: "1"},
		"age:GreaterOrEqual:18":    {Key: "age", Operate: GreaterOrEqual, Value: "18"},
		"created:2024-01-01T10:00": {Key: "created", Operate: Equal, Value: "2024-01-01T10:00"},
		"url:notequal:http://x":    {Key: "url", Operate: NotEqual, Value: "http://x"},
	}
	for in, want := range cases {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFilter("status")
	assert.Error(t, err)
}
