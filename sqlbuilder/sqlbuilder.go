// Package sqlbuilder renders INSERT/SELECT/UPDATE/DELETE statements
// from already-composed fragments (column lists, WHERE/HAVING
// condition strings, join clauses). It is dialect-independent: the
// identifier-quoting and literal-rendering rules it applies are the
// same for every DBMS family, grounded on the original's
// DefaultSQLBuilder (sql_builder.cpp), which likewise knows nothing
// about a specific driver.
package sqlbuilder

import (
	"fmt"
	"strconv"
	"strings"

	ormerrors "github.com/oarkflow/orm/errors"
)

// Quote wraps an identifier in double quotes, the quoting style used
// throughout this module's rendering (matching util::quote_str in the
// original and the teacher's own quoteIdentifier helpers).
func Quote(id string) string {
	return fmt.Sprintf("%q", id)
}

// Insert renders an INSERT INTO statement for one or more rows.
// columns is the already-comma-joined column list; rows is one
// already-comma-joined value-literal list per row.
func Insert(table, columns string, rows []string) (string, error) {
	if table == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.Insert", "table_name must not be empty")
	}
	if columns == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.Insert", "columns must not be empty")
	}
	if len(rows) == 0 {
		return "", ormerrors.NewQueryError("sqlbuilder.Insert", "rows must not be empty")
	}
	values := strings.Join(rows, "), (")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);", Quote(table), columns, values), nil
}

// SelectSpec holds every optional fragment a SELECT can carry.
type SelectSpec struct {
	Table    string
	Columns  []string // bare column names; Select() applies table-qualification and AS-aliasing
	Distinct bool
	Joins    []string // pre-rendered join clauses, one per join
	Where    string   // pre-rendered condition, "" for none
	OrderBy  []string // pre-rendered ordering terms
	Limit    int64    // -1 means unset
	Offset   int64    // 0 means unset
	GroupBy  []string // bare or dotted column names
	Having   string   // pre-rendered condition, "" for none
}

// Select renders a full SELECT statement, table-qualifying and
// AS-aliasing every column the way the original's sql_select does
// before delegating to the shared sql_select_ rendering core.
func Select(spec SelectSpec) (string, error) {
	if spec.Table == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.Select", "table_name must not be empty")
	}
	if len(spec.Columns) == 0 {
		return "", ormerrors.NewQueryError("sqlbuilder.Select", "columns must not be empty")
	}

	prefix := Quote(spec.Table) + "."
	parts := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		parts[i] = prefix + Quote(c) + " AS " + Quote(c)
	}
	return selectCore(spec.Table, strings.Join(parts, ", "), spec)
}

// SelectRaw renders a SELECT whose column list is already fully
// formed (e.g. aggregate expressions from query.Count/Sum/...), skipping
// the table-qualify-and-alias step Select applies to bare columns.
func SelectRaw(columnsStr string, spec SelectSpec) (string, error) {
	if spec.Table == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.SelectRaw", "table_name must not be empty")
	}
	if columnsStr == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.SelectRaw", "columns must not be empty")
	}
	return selectCore(spec.Table, columnsStr, spec)
}

func selectCore(table, columnsStr string, spec SelectSpec) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT")
	if spec.Distinct {
		sb.WriteString(" DISTINCT")
	}
	sb.WriteString(" ")
	sb.WriteString(columnsStr)
	sb.WriteString(" FROM ")
	sb.WriteString(Quote(table))

	for _, j := range spec.Joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	if spec.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(spec.Where)
	}

	if len(spec.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(spec.OrderBy, ", "))
	}

	limit := spec.Limit
	if limit < 0 {
		limit = -1
	}
	if limit > -1 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(limit, 10))
	}

	if spec.Offset > 0 {
		if limit < 0 {
			return "", ormerrors.NewQueryError("sqlbuilder.Select", "'offset' is used without 'limit'")
		}
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatInt(spec.Offset, 10))
	}

	if len(spec.GroupBy) > 0 {
		prefix := Quote(table) + "."
		terms := make([]string, len(spec.GroupBy))
		for i, col := range spec.GroupBy {
			if strings.Contains(col, ".") {
				terms[i] = col
			} else {
				terms[i] = prefix + Quote(col)
			}
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}

	if spec.Having != "" {
		if len(spec.GroupBy) == 0 {
			return "", ormerrors.NewQueryError("sqlbuilder.Select", "'having' is used without 'group by'")
		}
		sb.WriteString(" HAVING ")
		sb.WriteString(spec.Having)
	}

	sb.WriteString(";")
	return sb.String(), nil
}

// Update renders an UPDATE statement. columnsData is the already
// comma-joined "col" = literal assignment list.
func Update(table, columnsData, where string) (string, error) {
	if table == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.Update", "table_name must not be empty")
	}
	if columnsData == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.Update", "columns_data must not be empty")
	}
	q := fmt.Sprintf("UPDATE %s SET %s", Quote(table), columnsData)
	if where != "" {
		q += " WHERE " + where
	}
	return q + ";", nil
}

// Delete renders a DELETE statement.
func Delete(table, where string) (string, error) {
	if table == "" {
		return "", ormerrors.NewQueryError("sqlbuilder.Delete", "table_name must not be empty")
	}
	q := "DELETE FROM " + Quote(table)
	if where != "" {
		q += " WHERE " + where
	}
	return q + ";", nil
}
