package resourcesmanager

import (
	"sort"

	"github.com/nupi-ai/privnet/internal/resource"
	ourmaps "github.com/nupi-ai/privnet/internal/util/maps"
)

// GetDebug renders every live resource's Describe() row into one table,
// serving cached rows from describeCache where available (spec.md §4.5.8).
func (m *Manager) GetDebug() resource.DescribeTable {
	m.mu.Lock()
	adapters := ourmaps.Clone(m.adapters)
	m.mu.Unlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}

	rows := make([]resource.DescribeRow, 0, len(names))
	columnSet := map[string]struct{}{}
	for _, name := range names {
		row, ok := m.describeCache.Get(name)
		if !ok {
			row = adapters[name].Describe()
			m.describeCache.Add(name, row)
		}
		rows = append(rows, row)
		for col := range row.Fields {
			columnSet[col] = struct{}{}
		}
	}

	columns := make([]string, 0, len(columnSet))
	for col := range columnSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	return resource.NewDescribeTable(columns, rows)
}
