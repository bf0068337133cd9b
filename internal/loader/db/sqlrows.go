package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"crashprep/internal/table"
)

// QueryTable runs query against a database/sql handle and reads the full
// result set into a table. Backends built on database/sql (sqlite, mssql)
// share this reader; cell typing follows table.FromAny, so NULL scans to a
// missing cell and numeric driver types scan to numbers.
func QueryTable(ctx context.Context, conn *sql.DB, query string, maxRows int) (*table.Table, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db: columns: %w", err)
	}
	tab, err := table.New(ColumnNames(cols))
	if err != nil {
		return nil, fmt.Errorf("db: result columns: %w", err)
	}

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("db: scan row %d: %w", tab.NumRows()+1, err)
		}

		cells := make([]table.Value, len(vals))
		for i, v := range vals {
			cells[i] = table.FromAny(v)
		}
		if err := tab.AppendRow(cells...); err != nil {
			return nil, err
		}
		if maxRows > 0 && tab.NumRows() >= maxRows {
			return tab, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: rows: %w", err)
	}
	return tab, nil
}

// ColumnNames makes a result-set column list usable as table columns: blank
// names become col_N and repeated names get a numeric suffix. Queries like
// SELECT a.id, b.id FROM ... would otherwise collide.
func ColumnNames(cols []string) []string {
	out := make([]string, 0, len(cols))
	counts := map[string]int{}
	for i, name := range cols {
		if name == "" {
			name = "col_" + strconv.Itoa(i+1)
		}
		counts[name]++
		if n := counts[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		out = append(out, name)
	}
	return out
}
