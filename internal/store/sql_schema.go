package store

import "strconv"

// Dialect captures the differences between the SQL backends. Queries are
// written with '?' placeholders and rebound for drivers that number them.
type Dialect struct {
	Name     string
	Driver   string
	numbered bool
}

var (
	SQLite   = Dialect{Name: DriverSQLite, Driver: "sqlite"}
	Postgres = Dialect{Name: DriverPostgres, Driver: "pgx", numbered: true}
)

// Rebind rewrites '?' placeholders into the dialect's form ($1, $2, ...
// for Postgres). Queries in this package never contain a literal '?'.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, '$')
			out = strconv.AppendInt(out, int64(n), 10)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// schema is applied statement by statement on open; both SQLite and
// Postgres accept it as written.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS topic (
		topicmap_identifier INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		instance_of TEXT NOT NULL,
		PRIMARY KEY (topicmap_identifier, identifier)
	)`,
	`CREATE TABLE IF NOT EXISTS basename (
		topicmap_identifier INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		topic_identifier TEXT NOT NULL,
		name TEXT NOT NULL,
		language TEXT NOT NULL,
		PRIMARY KEY (topicmap_identifier, identifier)
	)`,
	`CREATE INDEX IF NOT EXISTS basename_topic_idx ON basename (topicmap_identifier, topic_identifier)`,
	`CREATE TABLE IF NOT EXISTS occurrence (
		topicmap_identifier INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		instance_of TEXT NOT NULL,
		scope TEXT NOT NULL,
		resource_ref TEXT NOT NULL,
		resource_data TEXT,
		language TEXT NOT NULL,
		topic_identifier TEXT NOT NULL,
		PRIMARY KEY (topicmap_identifier, identifier)
	)`,
	`CREATE INDEX IF NOT EXISTS occurrence_topic_idx ON occurrence (topicmap_identifier, topic_identifier)`,
	`CREATE TABLE IF NOT EXISTS attribute (
		topicmap_identifier INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		entity_identifier TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		data_type TEXT NOT NULL,
		scope TEXT NOT NULL,
		language TEXT NOT NULL,
		PRIMARY KEY (topicmap_identifier, identifier)
	)`,
	`CREATE INDEX IF NOT EXISTS attribute_entity_idx ON attribute (topicmap_identifier, entity_identifier)`,
	`CREATE TABLE IF NOT EXISTS association (
		topicmap_identifier INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		instance_of TEXT NOT NULL,
		scope TEXT NOT NULL,
		src_topic_ref TEXT NOT NULL,
		src_role_spec TEXT NOT NULL,
		dest_topic_ref TEXT NOT NULL,
		dest_role_spec TEXT NOT NULL,
		PRIMARY KEY (topicmap_identifier, identifier)
	)`,
	`CREATE INDEX IF NOT EXISTS association_src_idx ON association (topicmap_identifier, src_topic_ref)`,
	`CREATE INDEX IF NOT EXISTS association_dest_idx ON association (topicmap_identifier, dest_topic_ref)`,
}
