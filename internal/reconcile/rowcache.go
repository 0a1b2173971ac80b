package reconcile

// Table column indexes, in display order.
const (
	ColID = iota
	ColName
	ColProgress
	ColETA
	ColDown
	ColUp
	ColRatio
	ColStatus
	numColumns
)

// Row is the rendered cell set for one torrent.
type Row struct {
	ID    int64
	Cells [numColumns]string
}

// CellUpdate points at one changed cell of an existing row.
type CellUpdate struct {
	ID     int64
	Column int
	Text   string
}

// Diff is the minimal set of table mutations for one cycle.
type Diff struct {
	Added   []Row
	Updated []CellUpdate
	Removed []int64
}

// RowCache diffs successive renders so the table only repaints cells
// that changed. After Apply the cached ids match the input exactly.
type RowCache struct {
	rows map[int64]Row
}

// NewRowCache builds an empty cache.
func NewRowCache() *RowCache {
	return &RowCache{rows: map[int64]Row{}}
}

// Apply compares the new render against the cache and returns the
// mutations, then replaces the cache contents.
func (c *RowCache) Apply(rows []Row) Diff {
	var diff Diff
	seen := make(map[int64]bool, len(rows))

	for _, row := range rows {
		seen[row.ID] = true
		cached, ok := c.rows[row.ID]
		if !ok {
			diff.Added = append(diff.Added, row)
			c.rows[row.ID] = row
			continue
		}
		for col := 0; col < numColumns; col++ {
			if cached.Cells[col] != row.Cells[col] {
				diff.Updated = append(diff.Updated, CellUpdate{ID: row.ID, Column: col, Text: row.Cells[col]})
			}
		}
		c.rows[row.ID] = row
	}

	for id := range c.rows {
		if !seen[id] {
			diff.Removed = append(diff.Removed, id)
			delete(c.rows, id)
		}
	}
	return diff
}

// Len reports how many rows the cache currently tracks.
func (c *RowCache) Len() int { return len(c.rows) }
