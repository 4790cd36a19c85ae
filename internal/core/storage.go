package core

import (
	"fmt"
	"os"

	"anakcore/internal/blob"
	"anakcore/internal/infra/persistence/memory"
	"anakcore/internal/infra/persistence/postgres"
	"anakcore/internal/infra/persistence/sqlite"
	"anakcore/pkg/domain"
)

// StorageDriver identifies a concrete repository backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenRepository selects a repository backend using environment variables.
// Defaults to sqlite when unset.
//
//	ANAKCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ANAKCORE_SQLITE_PATH: path to sqlite file (default ./anakcore.db)
//	ANAKCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenRepository(blobs blob.Store) (domain.Repository, error) {
	driver := os.Getenv("ANAKCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(blobs), nil
	case StorageSQLite:
		path := os.Getenv("ANAKCORE_SQLITE_PATH")
		return sqlite.NewStore(path, blobs)
	case StoragePostgres:
		dsn := os.Getenv("ANAKCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, blobs)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
