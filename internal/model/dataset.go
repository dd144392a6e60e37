package model

// Row maps column names to raw cell values. Values are whatever the loading
// layer produced: string, bool, int64, float64, time.Time, or nil.
type Row map[string]any

// Dataset is an ordered sequence of rows. The data processing pipeline owns
// a working copy during a run; the caller's original is never touched.
type Dataset struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Clone returns a deep copy of the dataset so a pipeline can mutate its
// working copy while the original stays available for comparison.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, r := range d.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// CellCount returns rows × columns.
func (d *Dataset) CellCount() int {
	return len(d.Rows) * len(d.Columns)
}
