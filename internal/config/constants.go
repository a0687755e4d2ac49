package config

const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./bookfinder.db"

	// DefaultCatalogName is the library name the catalog is registered under
	DefaultCatalogName = "catalog"
)
