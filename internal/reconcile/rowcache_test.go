package reconcile

import "testing"

func row(id int64, cells ...string) Row {
	r := Row{ID: id}
	copy(r.Cells[:], cells)
	return r
}

func TestRowCacheFirstApplyAddsEverything(t *testing.T) {
	c := NewRowCache()
	diff := c.Apply([]Row{
		row(1, "1", "alpha", "50%"),
		row(2, "2", "beta", "10%"),
	})
	if len(diff.Added) != 2 || len(diff.Updated) != 0 || len(diff.Removed) != 0 {
		t.Fatalf("diff = %+v, want 2 added only", diff)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestRowCacheEmitsOnlyChangedCells(t *testing.T) {
	c := NewRowCache()
	c.Apply([]Row{row(1, "1", "alpha", "50%", "3m")})

	diff := c.Apply([]Row{row(1, "1", "alpha", "55%", "2m")})
	if len(diff.Added) != 0 || len(diff.Removed) != 0 {
		t.Fatalf("diff = %+v, want updates only", diff)
	}
	if len(diff.Updated) != 2 {
		t.Fatalf("Updated = %v, want 2 changed cells", diff.Updated)
	}
	for _, u := range diff.Updated {
		switch u.Column {
		case ColProgress:
			if u.Text != "55%" {
				t.Fatalf("progress update = %q, want 55%%", u.Text)
			}
		case ColETA:
			if u.Text != "2m" {
				t.Fatalf("eta update = %q, want 2m", u.Text)
			}
		default:
			t.Fatalf("unexpected column %d updated", u.Column)
		}
	}
}

func TestRowCacheUnchangedRowIsSilent(t *testing.T) {
	c := NewRowCache()
	rows := []Row{row(1, "1", "alpha", "50%")}
	c.Apply(rows)

	diff := c.Apply(rows)
	if len(diff.Added)+len(diff.Updated)+len(diff.Removed) != 0 {
		t.Fatalf("diff = %+v, want empty for identical render", diff)
	}
}

func TestRowCacheRemovesVanishedRows(t *testing.T) {
	c := NewRowCache()
	c.Apply([]Row{row(1), row(2), row(3)})

	diff := c.Apply([]Row{row(2)})
	if len(diff.Removed) != 2 {
		t.Fatalf("Removed = %v, want ids 1 and 3", diff.Removed)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want cache ids to match the poll exactly", c.Len())
	}
}

func TestRowCacheEmptyPollClearsCache(t *testing.T) {
	c := NewRowCache()
	c.Apply([]Row{row(1), row(2)})

	diff := c.Apply(nil)
	if len(diff.Removed) != 2 || c.Len() != 0 {
		t.Fatalf("diff = %+v len = %d, want everything removed", diff, c.Len())
	}
}
