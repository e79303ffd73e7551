package sqlstore

// Dialect holds the statements that differ between SQL backends.
type Dialect struct {
	Name string

	// UpsertContactPoint inserts (name, created_at, updated_at) and only
	// touches updated_at when the name exists.
	UpsertContactPoint string
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name: "sqlite",
	UpsertContactPoint: `INSERT INTO contact_points (name, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`,
}

// MySQL is the dialect for go-sql-driver/mysql.
var MySQL = Dialect{
	Name: "mysql",
	UpsertContactPoint: `INSERT INTO contact_points (name, created_at, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)`,
}
