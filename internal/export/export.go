package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Rana718/botseed/internal/database/memory"
	"github.com/Rana718/botseed/internal/database/sqlite"
	"github.com/Rana718/botseed/internal/schema"
)

// Source is a store whose rows can be read back.
type Source interface {
	Rows(e *schema.Entity) []memory.Row
}

// Dataset is the document written by the JSON exporter.
type Dataset struct {
	Timestamp string                      `json:"timestamp"`
	Version   string                      `json:"version"`
	Order     []string                    `json:"order"`
	Tables    map[string][]map[string]any `json:"tables"`
	Comment   string                      `json:"comment"`
}

// PerformExport writes every table of src into exportPath and returns the
// file or directory it created. Format is json, csv or sqlite.
func PerformExport(ctx context.Context, s *schema.Schema, order []string, src Source, exportPath, format string) (string, error) {
	data := Dataset{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Version:   "1.0",
		Order:     order,
		Tables:    make(map[string][]map[string]any, len(order)),
		Comment:   "Synthetic bot platform dataset",
	}

	type tableResult struct {
		table string
		rows  []map[string]any
	}

	results := make(chan tableResult, len(order))
	var wg sync.WaitGroup

	for _, name := range order {
		e, ok := s.Entity(name)
		if !ok {
			return "", fmt.Errorf("unknown entity in order: %s", name)
		}
		wg.Add(1)
		go func(e *schema.Entity) {
			defer wg.Done()
			results <- tableResult{e.Table, records(e, src.Rows(e))}
		}(e)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		data.Tables[result.table] = result.rows
	}

	switch format {
	case "csv":
		return exportToCSV(s, order, data, exportPath)
	case "sqlite":
		return exportToSQLite(ctx, s, order, data, exportPath)
	case "json", "":
		return exportToJSON(data, exportPath)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func records(e *schema.Entity, rows []memory.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		rec := make(map[string]any, len(row.Values)+1)
		rec["id"] = row.ID
		for _, col := range e.Columns() {
			rec[col] = row.Values[col]
		}
		out[i] = rec
	}
	return out
}

func exportToJSON(data Dataset, exportPath string) (string, error) {
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filePath := filepath.Join(exportPath, fmt.Sprintf("export_%s.json", timestamp))

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

func exportToCSV(s *schema.Schema, order []string, data Dataset, exportPath string) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	dirPath := filepath.Join(exportPath, fmt.Sprintf("export_%s_csv", timestamp))

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create CSV directory: %w", err)
	}

	for _, name := range order {
		e, _ := s.Entity(name)
		rows := data.Tables[e.Table]
		if len(rows) == 0 {
			continue
		}
		if err := writeCSV(filepath.Join(dirPath, e.Table+".csv"), e, rows); err != nil {
			return "", err
		}
	}

	return dirPath, nil
}

func writeCSV(path string, e *schema.Entity, rows []map[string]any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file for %s: %w", e.Table, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	headers := append([]string{"id"}, e.Columns()...)
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, row := range rows {
		values := make([]string, len(headers))
		for i, header := range headers {
			values[i] = csvValue(row[header])
		}
		if err := writer.Write(values); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// exportToSQLite replays the dataset into a fresh SQLite file. Tables are
// filled in dependency order, so the file's ids match the source ids.
func exportToSQLite(ctx context.Context, s *schema.Schema, order []string, data Dataset, exportPath string) (string, error) {
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filePath := filepath.Join(exportPath, fmt.Sprintf("export_%s.db", timestamp))

	db := sqlite.New()
	if err := db.Connect(ctx, "sqlite://"+filePath); err != nil {
		return "", fmt.Errorf("failed to create SQLite database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx, s, order); err != nil {
		return "", err
	}

	for _, name := range order {
		e, _ := s.Entity(name)
		for _, row := range data.Tables[e.Table] {
			values := make(schema.Values, len(row))
			for col, v := range row {
				if col != "id" {
					values[col] = v
				}
			}
			id, err := db.Register(ctx, e, values)
			if err != nil {
				return "", fmt.Errorf("failed to insert row into %s: %w", e.Table, err)
			}
			if id != row["id"] {
				return "", fmt.Errorf("%s row %v was stored with id %d", e.Table, row["id"], id)
			}
		}
	}

	return filePath, nil
}
