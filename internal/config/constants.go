package config

// Default connection settings for the document store
const (
	// DefaultMongoURL is the default MongoDB connection string
	DefaultMongoURL = "mongodb://localhost:27017"

	// DefaultMongoDatabase is the default database name
	DefaultMongoDatabase = "booknest"
)
