package datatable

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/form"
)

type visitRow struct {
	ID     string
	Host   string
	Status string
	Score  string
}

func visitTable() Definition[visitRow] {
	return Definition[visitRow]{
		Path: "/visits",
		Columns: []Column[visitRow]{
			{Key: "host", Label: "Host", Sortable: true, Value: func(v visitRow) string { return v.Host }},
			{Key: "visitedAt", Label: "Visited", Sortable: true, SortKey: "visited_at", Value: func(v visitRow) string { return "" }},
			{Key: "score", Label: "Score", Sortable: true, Value: func(v visitRow) string { return v.Score }},
			{Key: "status", Label: "Status", Value: func(v visitRow) string { return v.Status }, Link: func(v visitRow) string { return "/visits/" + v.ID }},
		},
		Filters: []Filter{
			{Name: "q", Label: "Search", Kind: FilterText, Param: "search"},
			{Name: "status", Label: "Status", Kind: FilterMultiSelect, Options: []form.Option{{Value: "green", Label: "Green"}, {Value: "red", Label: "Red"}}},
			{Name: "active", Label: "Active", Kind: FilterBoolean},
		},
		RowID: func(v visitRow) string { return v.ID },
		Actions: func(v visitRow) []Action {
			return []Action{{Label: "Delete", Href: "/visits/" + v.ID + "/delete", Method: "post"}}
		},
		Match: func(v visitRow, s State) bool {
			statuses := s.Values("status")
			if len(statuses) == 0 {
				return true
			}
			for _, st := range statuses {
				if st == v.Status {
					return true
				}
			}
			return false
		},
	}
}

func TestToggleSortCycle(t *testing.T) {
	s := visitTable().Parse(url.Values{"page": {"3"}})
	require.Equal(t, 3, s.Page)

	s = s.ToggleSort("host")
	assert.Equal(t, "host", s.Sort)
	assert.Equal(t, OrderAsc, s.Order)
	assert.Equal(t, 1, s.Page)

	s = s.ToggleSort("host")
	assert.Equal(t, OrderDesc, s.Order)

	s = s.ToggleSort("host")
	assert.Equal(t, "", s.Sort)
	assert.Equal(t, OrderNone, s.Order)

	s = s.ToggleSort("host").ToggleSort("score")
	assert.Equal(t, "score", s.Sort)
	assert.Equal(t, OrderAsc, s.Order)
}

func TestToggleSortKeepsFilters(t *testing.T) {
	s := visitTable().Parse(url.Values{"status": {"green", "red"}, "page": {"2"}})
	next := s.ToggleSort("host")
	assert.Equal(t, []string{"green", "red"}, next.Values("status"))
	assert.Equal(t, 1, next.Page)
	// the original state is untouched
	assert.Equal(t, 2, s.Page)
}

func TestParseIgnoresUnknownSortAndBadValues(t *testing.T) {
	s := visitTable().Parse(url.Values{
		"sort":   {"status"},
		"order":  {"asc"},
		"size":   {"33"},
		"page":   {"-4"},
		"active": {"maybe"},
		"q":      {"  "},
	})
	assert.Equal(t, "", s.Sort)
	assert.Equal(t, DefaultSize, s.Size)
	assert.Equal(t, 1, s.Page)
	assert.False(t, s.Filtered())
}

func TestServerQuery(t *testing.T) {
	def := visitTable()
	s := def.Parse(url.Values{
		"q":      {"  Rua 7 "},
		"status": {"green", "red", "green"},
		"active": {"true"},
		"size":   {"50"},
		"page":   {"2"},
		"sort":   {"visitedAt"},
		"order":  {"desc"},
	})
	q := def.ServerQuery(s)
	assert.Equal(t, "2", q.Get("page[number]"))
	assert.Equal(t, "50", q.Get("page[size]"))
	assert.Equal(t, "-visited_at", q.Get("sort"))
	assert.Equal(t, "Rua 7", q.Get("filter[search]"))
	assert.Equal(t, "green,red", q.Get("filter[status]"))
	assert.Equal(t, "true", q.Get("filter[active]"))
}

func TestServerQueryOmitsSortWhenUnsorted(t *testing.T) {
	def := visitTable()
	q := def.ServerQuery(def.Parse(url.Values{}))
	assert.False(t, q.Has("sort"))
	assert.Equal(t, "1", q.Get("page[number]"))
	assert.Equal(t, "20", q.Get("page[size]"))

	s := def.Parse(url.Values{"sort": {"host"}, "order": {"asc"}})
	assert.Equal(t, "host", def.ServerQuery(s).Get("sort"))
}

func TestDefaultSortCanBeCleared(t *testing.T) {
	def := visitTable()
	def.DefaultSort, def.DefaultOrder = "host", OrderDesc

	s := def.Parse(url.Values{})
	require.Equal(t, "host", s.Sort)
	require.Equal(t, OrderDesc, s.Order)

	cleared := s.ToggleSort("host")
	require.Equal(t, OrderNone, cleared.Order)

	u, err := url.Parse(cleared.URL(def.Path))
	require.NoError(t, err)
	again := def.Parse(u.Query())
	assert.Equal(t, "", again.Sort)
	assert.Equal(t, OrderNone, again.Order)
}

func TestClamp(t *testing.T) {
	s := visitTable().Parse(url.Values{"page": {"9"}})
	clamped, moved := s.Clamp(45)
	require.True(t, moved)
	assert.Equal(t, 3, clamped.Page)
	assert.Equal(t, "/visits?page=3", clamped.URL("/visits"))

	_, moved = clamped.Clamp(45)
	assert.False(t, moved)

	// an empty result set never redirects
	_, moved = s.Clamp(0)
	assert.False(t, moved)
}

func TestBuild(t *testing.T) {
	def := visitTable()
	s := def.Parse(url.Values{"page": {"2"}, "size": {"10"}, "sort": {"host"}, "order": {"asc"}, "status": {"red"}})
	rows := []visitRow{{ID: "7", Host: "Ana", Status: "red"}, {ID: "8", Host: "Beto", Status: "red"}}

	table := def.Build(s, rows, 25)

	require.Len(t, table.Headers, 4)
	host := table.Headers[0]
	assert.Equal(t, OrderAsc, host.Order)
	assert.Equal(t, "▲", host.Indicator())
	assert.Contains(t, host.URL, "order=desc")
	assert.NotContains(t, host.URL, "page=")
	assert.False(t, table.Headers[3].Sortable)
	assert.Empty(t, table.Headers[3].URL)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "7", table.Rows[0].ID)
	assert.Equal(t, "/visits/7", table.Rows[0].Cells[3].Link)
	assert.True(t, table.HasActions)
	assert.True(t, table.Rows[0].Actions[0].IsPost())

	assert.Equal(t, 11, table.Pager.From)
	assert.Equal(t, 12, table.Pager.To)
	assert.Equal(t, 3, table.Pager.Pagination.TotalPages)
	assert.Contains(t, table.Pager.PrevURL, "/visits?")
	assert.NotContains(t, table.Pager.PrevURL, "page=")
	assert.Contains(t, table.Pager.NextURL, "page=3")
	require.Len(t, table.Pager.Pages, 3)
	assert.True(t, table.Pager.Pages[1].Current)

	assert.True(t, table.Filtered)
	assert.Equal(t, "/visits?order=asc&size=10&sort=host", table.ClearURL)
	assert.Equal(t, []Hidden{{Name: "order", Value: "asc"}, {Name: "size", Value: "10"}, {Name: "sort", Value: "host"}}, table.Hidden)

	require.Len(t, table.Filters, 3)
	assert.Equal(t, []string{"red"}, table.Filters[1].Values)
	assert.Equal(t, []string{"Red"}, table.Filters[1].SelectedLabels())
	assert.Len(t, table.Filters[2].Options, 2)
}

func TestSortLocal(t *testing.T) {
	def := visitTable()
	score, _ := def.column("score")
	host, _ := def.column("host")
	rows := []visitRow{{ID: "1", Host: "beto", Score: "10"}, {ID: "2", Host: "Ana", Score: "9"}, {ID: "3", Host: "ana", Score: "10"}}

	byScore := SortLocal(rows, score, OrderAsc)
	assert.Equal(t, []string{"2", "1", "3"}, ids(byScore))

	byHost := SortLocal(rows, host, OrderAsc)
	assert.Equal(t, []string{"2", "3", "1"}, ids(byHost))

	byHostDesc := SortLocal(rows, host, OrderDesc)
	assert.Equal(t, "1", byHostDesc[0].ID)

	assert.Equal(t, ids(rows), ids(SortLocal(rows, host, OrderNone)))
}

func TestLocal(t *testing.T) {
	def := visitTable()
	var rows []visitRow
	for i := 1; i <= 25; i++ {
		status := "green"
		if i%5 == 0 {
			status = "red"
		}
		rows = append(rows, visitRow{ID: strconv.Itoa(i), Score: strconv.Itoa(i), Status: status})
	}

	page, total := def.Local(def.Parse(url.Values{"size": {"10"}, "page": {"3"}, "sort": {"score"}, "order": {"desc"}}), rows)
	assert.Equal(t, 25, total)
	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, ids(page))

	page, total = def.Local(def.Parse(url.Values{"status": {"red"}}), rows)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"5", "10", "15", "20", "25"}, ids(page))

	page, _ = def.Local(def.Parse(url.Values{"page": {"7"}}), rows)
	assert.Empty(t, page)
}

func ids(rows []visitRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
