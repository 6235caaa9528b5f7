package database

import (
	"github.com/Rana718/botseed/internal/database/memory"
	"github.com/Rana718/botseed/internal/database/mysql"
	"github.com/Rana718/botseed/internal/database/postgres"
	"github.com/Rana718/botseed/internal/database/sqlite"
)

func NewAdapter(provider string) Adapter {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New()
	case "mysql":
		return mysql.New()
	case "memory":
		return memory.New()
	case "sqlite", "sqlite3":
		return sqlite.New()
	default:
		return sqlite.New()
	}
}
