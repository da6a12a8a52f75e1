package views

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
)

func rowNames(rows []restypes.FlowTestRow) []string {
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	return names
}

func sampleRows() []restypes.FlowTestRow {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []restypes.FlowTestRow{
		{ID: 0, Name: "charlie", Status: "Passed", FailedTests: 0, Created: base.Add(2 * time.Hour)},
		{ID: 1, Name: "alpha", Status: "Failed", FailedTests: 2, Created: base},
		{ID: 2, Name: "bravo", Status: "Failed", FailedTests: 1, Created: base.Add(time.Hour)},
	}
}

func TestParseListQueryDefaults(t *testing.T) {
	require.Equal(t, ListQuery{Sort: "name", Order: "asc"}, ParseListQuery(url.Values{}))
	require.Equal(t, ListQuery{Sort: "name", Order: "asc"}, ParseListQuery(url.Values{"sort": {"bogus"}, "order": {"sideways"}}))
	require.Equal(t, ListQuery{Sort: "failedTests", Order: "desc"}, ParseListQuery(url.Values{"sort": {"failedTests"}, "order": {"DESC"}}))
}

func TestSortRows(t *testing.T) {
	rows := sampleRows()
	SortRows(rows, ListQuery{Sort: "name", Order: OrderAsc})
	require.Equal(t, []string{"alpha", "bravo", "charlie"}, rowNames(rows))

	SortRows(rows, ListQuery{Sort: "failedTests", Order: OrderDesc})
	require.Equal(t, []string{"alpha", "bravo", "charlie"}, rowNames(rows))

	SortRows(rows, ListQuery{Sort: "createdAt", Order: OrderDesc})
	require.Equal(t, []string{"charlie", "bravo", "alpha"}, rowNames(rows))

	// ties fall back to name ascending
	SortRows(rows, ListQuery{Sort: "status", Order: OrderAsc})
	require.Equal(t, []string{"alpha", "bravo", "charlie"}, rowNames(rows))
}

func TestNewListModelHeaders(t *testing.T) {
	model := NewListModel(sampleRows(), ListQuery{Sort: "name", Order: OrderAsc})
	require.Len(t, model.Headers, len(Columns))

	for _, h := range model.Headers {
		switch h.Key {
		case "name":
			require.True(t, h.Active)
			require.Equal(t, "/flowtests?order=desc&sort=name", h.Href)
		case "status":
			require.False(t, h.Active)
			require.Equal(t, "/flowtests?order=asc&sort=status", h.Href)
		}
	}
}

func TestSelection(t *testing.T) {
	form := url.Values{"selected": {"a", " ", "b", "a"}}
	require.Equal(t, []string{"a", "b"}, Selection(form))
	require.Empty(t, Selection(url.Values{}))
}
