package common

import (
	"fmt"
	"strings"

	"github.com/Rana718/botseed/internal/schema"
)

// Dialect describes how one SQL engine spells identifiers and column types.
type Dialect struct {
	Name       string
	Quote      func(string) string
	PrimaryKey string // full definition of the id column type
	ForeignKey string // type of relation columns
	Types      map[schema.Kind]string
}

func DoubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func Backtick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// CreateTableSQL renders an idempotent CREATE TABLE statement for e.
// Required relations are NOT NULL; scalar fields are NOT NULL unless nullable.
func CreateTableSQL(d Dialect, s *schema.Schema, e *schema.Entity) (string, error) {
	if !schema.IsValidIdentifier(e.Table) {
		return "", fmt.Errorf("invalid table name: %s", e.Table)
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", d.Quote("id"), d.PrimaryKey))

	for _, rel := range e.Relations {
		line := fmt.Sprintf("%s %s", d.Quote(rel.Column), d.ForeignKey)
		if !rel.Optional {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}

	for _, f := range e.Fields {
		colType, ok := d.Types[f.Kind]
		if !ok {
			return "", fmt.Errorf("%s: no %s column type for %s.%s", d.Name, f.Kind, e.Name, f.Name)
		}
		line := fmt.Sprintf("%s %s", d.Quote(f.Name), colType)
		if !f.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}

	for _, rel := range e.Relations {
		target, ok := s.Entity(rel.Target)
		if !ok {
			return "", fmt.Errorf("%s.%s references undeclared entity %s", e.Name, rel.Column, rel.Target)
		}
		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			d.Quote(rel.Column), d.Quote(target.Table), d.Quote("id")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n);", d.Quote(e.Table), strings.Join(lines, ",\n\t")), nil
}

// SchemaStatements renders one CREATE TABLE per entity in order, which must
// list referenced entities before the entities that reference them.
func SchemaStatements(d Dialect, s *schema.Schema, order []string) ([]string, error) {
	stmts := make([]string, 0, len(order))
	for _, name := range order {
		e, ok := s.Entity(name)
		if !ok {
			return nil, fmt.Errorf("unknown entity in order: %s", name)
		}
		stmt, err := CreateTableSQL(d, s, e)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// SchemaScript joins SchemaStatements into a script for display.
func SchemaScript(d Dialect, s *schema.Schema, order []string) (string, error) {
	stmts, err := SchemaStatements(d, s, order)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s schema\n", d.Name)
	for _, stmt := range stmts {
		b.WriteString("\n")
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	return b.String(), nil
}
