package host

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/riwaq/riwaq-go/value"
)

// scanRows converts a result set to a JSON array of row objects. Keys keep
// column order, so the payload reads like the SELECT list.
func scanRows(rows *sql.Rows) (json.RawMessage, int, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, 0, fmt.Errorf("read columns: %w", err)
	}

	out := value.Array{}
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, 0, fmt.Errorf("scan row: %w", err)
		}

		row := make(value.Object, 0, len(cols))
		for i, col := range cols {
			v, err := cellValue(cells[i])
			if err != nil {
				return nil, 0, fmt.Errorf("column %s: %w", col, err)
			}
			row = append(row, value.O(col, v))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rows: %w", err)
	}

	data, err := value.Marshal(out)
	if err != nil {
		return nil, 0, err
	}
	return data, len(out), nil
}

// cellValue maps a driver value to a Value. TEXT may arrive as []byte and
// DATETIME columns as time.Time.
func cellValue(cell any) (value.Value, error) {
	switch v := cell.(type) {
	case []byte:
		return value.String(v), nil
	case time.Time:
		return value.String(v.UTC().Format(time.RFC3339Nano)), nil
	default:
		return value.Of(v)
	}
}
