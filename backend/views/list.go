/*
 * backend/views/list.go
 *
 * FlowTest list view model.
 * - Column definitions, sort parsing and stable row sorting.
 * - Selection parsing for batch delete.
 */

package views

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// DefaultSortColumn is used when the query names no known column.
const DefaultSortColumn = "name"

// Column is one table column.
type Column struct {
	Key     string
	Label   string
	Numeric bool
}

// Columns lists the table columns in display order.
var Columns = []Column{
	{Key: "status", Label: "Status"},
	{Key: "name", Label: "Name"},
	{Key: "flowType", Label: "Flow Type"},
	{Key: "namespace", Label: "Namespace"},
	{Key: "referencePod", Label: "Reference Pod"},
	{Key: "referenceFlow", Label: "Reference Flow"},
	{Key: "totalTests", Label: "Total Tests", Numeric: true},
	{Key: "passedTests", Label: "Passed Tests", Numeric: true},
	{Key: "failedTests", Label: "Failed Tests", Numeric: true},
	{Key: "createdAt", Label: "Created At"},
}

// ListQuery is the sort state of the list view.
type ListQuery struct {
	Sort  string
	Order string
}

// ParseListQuery reads sort and order, falling back to name ascending.
func ParseListQuery(values url.Values) ListQuery {
	q := ListQuery{Sort: DefaultSortColumn, Order: OrderAsc}
	if column := values.Get("sort"); knownColumn(column) {
		q.Sort = column
	}
	if strings.EqualFold(values.Get("order"), OrderDesc) {
		q.Order = OrderDesc
	}
	return q
}

func knownColumn(key string) bool {
	for _, c := range Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

// SortRows sorts rows in place by the query column. Ties fall back to name
// then namespace so repeated renders keep the same order.
func SortRows(rows []restypes.FlowTestRow, q ListQuery) {
	compare := comparator(q.Sort)
	slices.SortStableFunc(rows, func(a, b restypes.FlowTestRow) int {
		c := compare(a, b)
		if q.Order == OrderDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Namespace, b.Namespace)
	})
}

func comparator(column string) func(a, b restypes.FlowTestRow) int {
	switch column {
	case "status":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.Status, b.Status) }
	case "flowType":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.FlowType, b.FlowType) }
	case "namespace":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.Namespace, b.Namespace) }
	case "referencePod":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.ReferencePod, b.ReferencePod) }
	case "referenceFlow":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.ReferenceFlow, b.ReferenceFlow) }
	case "totalTests":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.TotalTests, b.TotalTests) }
	case "passedTests":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.PassedTests, b.PassedTests) }
	case "failedTests":
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.FailedTests, b.FailedTests) }
	case "createdAt":
		return func(a, b restypes.FlowTestRow) int { return a.Created.Compare(b.Created) }
	default:
		return func(a, b restypes.FlowTestRow) int { return cmp.Compare(a.Name, b.Name) }
	}
}

// HeaderLink is a sortable column header.
type HeaderLink struct {
	Column
	Href   string
	Active bool
	Order  string
}

// ListModel is everything the list page renders.
type ListModel struct {
	Rows    []restypes.FlowTestRow
	Query   ListQuery
	Headers []HeaderLink
}

// NewListModel sorts rows and builds header links. Clicking the active column
// flips its order; any other column starts ascending.
func NewListModel(rows []restypes.FlowTestRow, q ListQuery) ListModel {
	SortRows(rows, q)
	headers := make([]HeaderLink, 0, len(Columns))
	for _, c := range Columns {
		next := OrderAsc
		active := c.Key == q.Sort
		if active && q.Order == OrderAsc {
			next = OrderDesc
		}
		values := url.Values{"sort": {c.Key}, "order": {next}}
		headers = append(headers, HeaderLink{
			Column: c,
			Href:   "/flowtests?" + values.Encode(),
			Active: active,
			Order:  q.Order,
		})
	}
	return ListModel{Rows: rows, Query: q, Headers: headers}
}

// Selection returns the distinct non-empty names posted by the table checkboxes, in post order.
func Selection(form url.Values) []string {
	seen := map[string]bool{}
	var names []string
	for _, name := range form["selected"] {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
