package common

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/botseed/internal/schema"
)

// InsertQuery builds an insert of every column of e; absent values are NULL.
func InsertQuery(qb squirrel.StatementBuilderType, d Dialect, e *schema.Entity, v schema.Values) squirrel.InsertBuilder {
	cols := e.Columns()
	quoted := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		quoted[i] = d.Quote(col)
		args[i] = v[col]
	}
	return qb.Insert(d.Quote(e.Table)).Columns(quoted...).Values(args...)
}

func CountQuery(qb squirrel.StatementBuilderType, d Dialect, e *schema.Entity) squirrel.SelectBuilder {
	return qb.Select("COUNT(*)").From(d.Quote(e.Table))
}

// ReferencingQuery selects ids of e rows whose column equals id.
func ReferencingQuery(qb squirrel.StatementBuilderType, d Dialect, e *schema.Entity, column string, id int64) squirrel.SelectBuilder {
	return qb.Select(d.Quote("id")).
		From(d.Quote(e.Table)).
		Where(squirrel.Eq{d.Quote(column): id}).
		OrderBy(d.Quote("id"))
}

// LookupQuery selects columns of the e row with the given id.
func LookupQuery(qb squirrel.StatementBuilderType, d Dialect, e *schema.Entity, id int64, columns []string) (squirrel.SelectBuilder, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		if err := ValidateColumn(e, col); err != nil {
			return squirrel.SelectBuilder{}, err
		}
		quoted[i] = d.Quote(col)
	}
	return qb.Select(quoted...).
		From(d.Quote(e.Table)).
		Where(squirrel.Eq{d.Quote("id"): id}), nil
}

// ScanValues maps a scanned row onto columns. Drivers that return text as
// bytes get strings back.
func ScanValues(columns []string, dest []any) schema.Values {
	out := make(schema.Values, len(columns))
	for i, col := range columns {
		v := *(dest[i].(*any))
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out[col] = v
	}
	return out
}

// ScanTargets returns n pointers suitable for Row.Scan.
func ScanTargets(n int) []any {
	dest := make([]any, n)
	for i := range dest {
		dest[i] = new(any)
	}
	return dest
}

// OrphanQuery counts e rows whose column is set but matches no target row.
func OrphanQuery(qb squirrel.StatementBuilderType, d Dialect, e *schema.Entity, column string, target *schema.Entity) squirrel.SelectBuilder {
	child := "c." + d.Quote(column)
	parentID := "p." + d.Quote("id")
	return qb.Select("COUNT(*)").
		From(d.Quote(e.Table) + " c").
		LeftJoin(fmt.Sprintf("%s p ON %s = %s", d.Quote(target.Table), child, parentID)).
		Where(squirrel.And{
			squirrel.NotEq{child: nil},
			squirrel.Eq{parentID: nil},
		})
}

// ValidateColumn rejects columns that are not declared on e.
func ValidateColumn(e *schema.Entity, column string) error {
	if !schema.IsValidIdentifier(column) {
		return fmt.Errorf("invalid column name: %s", column)
	}
	if _, ok := e.Relation(column); ok {
		return nil
	}
	if _, ok := e.Field(column); ok {
		return nil
	}
	return fmt.Errorf("%s has no column %s", e.Name, column)
}
