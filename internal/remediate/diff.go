package remediate

import (
	"fmt"

	"github.com/ndmokit/ndmokit/internal/model"
)

// Change records one structural difference a pipeline stage made to the
// schema.
type Change struct {
	Category    string `json:"category"`
	ColumnName  string `json:"column_name,omitempty"`
	OldValue    string `json:"old_value,omitempty"`
	NewValue    string `json:"new_value,omitempty"`
	Description string `json:"description"`
}

// Diff compares two schema snapshots and returns the changes that turn
// before into after. It reports added and removed columns, type changes,
// nullability changes, key promotions, security annotations, and constraint
// attachment.
func Diff(before, after *model.Schema) []Change {
	var changes []Change

	beforeByName := make(map[string]model.Column, len(before.Columns))
	for _, col := range before.Columns {
		beforeByName[col.Name] = col
	}
	afterByName := make(map[string]model.Column, len(after.Columns))
	for _, col := range after.Columns {
		afterByName[col.Name] = col
	}

	for _, old := range before.Columns {
		cur, exists := afterByName[old.Name]
		if !exists {
			changes = append(changes, Change{
				Category:    "column_removed",
				ColumnName:  old.Name,
				OldValue:    string(old.Type),
				Description: fmt.Sprintf("Column %q was removed from table %q", old.Name, before.TableName),
			})
			continue
		}

		if old.Type != cur.Type {
			changes = append(changes, Change{
				Category:    "type_changed",
				ColumnName:  old.Name,
				OldValue:    string(old.Type),
				NewValue:    string(cur.Type),
				Description: fmt.Sprintf("Column %q type changed from %q to %q", old.Name, old.Type, cur.Type),
			})
		}

		if old.Nullable != cur.Nullable {
			ov, nv := "nullable", "not null"
			if !old.Nullable {
				ov, nv = nv, ov
			}
			changes = append(changes, Change{
				Category:    "nullable_changed",
				ColumnName:  old.Name,
				OldValue:    ov,
				NewValue:    nv,
				Description: fmt.Sprintf("Column %q changed from %s to %s", old.Name, ov, nv),
			})
		}

		if !old.PrimaryKey && cur.PrimaryKey {
			changes = append(changes, Change{
				Category:    "key_promoted",
				ColumnName:  old.Name,
				NewValue:    "primary key",
				Description: fmt.Sprintf("Column %q was promoted to primary key", old.Name),
			})
		}

		if !old.Masked && cur.Masked {
			changes = append(changes, Change{
				Category:    "masking_added",
				ColumnName:  old.Name,
				Description: fmt.Sprintf("Column %q was marked for masking", old.Name),
			})
		}
		if !old.Encrypted && cur.Encrypted {
			changes = append(changes, Change{
				Category:    "encryption_added",
				ColumnName:  old.Name,
				Description: fmt.Sprintf("Column %q was marked for encryption", old.Name),
			})
		}

		if old.Constraints.Empty() && !cur.Constraints.Empty() {
			changes = append(changes, Change{
				Category:    "constraints_added",
				ColumnName:  old.Name,
				Description: fmt.Sprintf("Constraints were attached to column %q", old.Name),
			})
		}

		if old.Default == nil && cur.Default != nil {
			changes = append(changes, Change{
				Category:    "default_added",
				ColumnName:  old.Name,
				NewValue:    *cur.Default,
				Description: fmt.Sprintf("Column %q gained default %q", old.Name, *cur.Default),
			})
		}
	}

	for _, cur := range after.Columns {
		if _, exists := beforeByName[cur.Name]; !exists {
			changes = append(changes, Change{
				Category:    "column_added",
				ColumnName:  cur.Name,
				NewValue:    string(cur.Type),
				Description: fmt.Sprintf("Column %q was added to table %q", cur.Name, after.TableName),
			})
		}
	}

	return changes
}
