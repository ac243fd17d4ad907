package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agentic-research/topicmap/api"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"
)

const (
	defaultSQLitePath  = "topicmap.db"
	defaultPostgresDSN = "postgres://localhost/topicmap?sslmode=disable"
)

// SQLStore implements Store on database/sql. Each Store call opens its own
// transaction and commits or rolls it back before returning; there are no
// multi-call batches.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (creating if needed) a SQLite topic store at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	db, err := sql.Open(SQLite.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single connection: ":memory:" databases are per-connection, and one
	// writer avoids SQLITE_BUSY between back-to-back transactions.
	db.SetMaxOpenConns(1)
	return NewSQLStore(ctx, db, SQLite)
}

// OpenPostgres connects to Postgres through pgx and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open(Postgres.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewSQLStore(ctx, db, Postgres)
}

// NewSQLStore wraps an open database and applies the schema. The store owns
// db from here on; it is closed on failure.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// DB exposes the underlying sql.DB for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Close() error { return s.db.Close() }

// sqlTx is one store operation's transaction.
type sqlTx struct {
	ctx     context.Context
	tx      *sql.Tx
	dialect Dialect
	mapID   int
}

func (t *sqlTx) exec(query string, args ...any) error {
	_, err := t.tx.ExecContext(t.ctx, t.dialect.Rebind(query), args...)
	return err
}

func (t *sqlTx) query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, t.dialect.Rebind(query), args...)
}

func (t *sqlTx) queryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(t.ctx, t.dialect.Rebind(query), args...)
}

// withTx runs fn in a transaction. The transaction is rolled back on every
// error path and committed otherwise.
func (s *SQLStore) withTx(ctx context.Context, op string, mapID int, fn func(*sqlTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return opError(op, err)
	}
	if err := fn(&sqlTx{ctx: ctx, tx: tx, dialect: s.dialect, mapID: mapID}); err != nil {
		_ = tx.Rollback()
		return opError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return opError(op, err)
	}
	return nil
}

// --- Topics ---

func (s *SQLStore) TopicExists(ctx context.Context, mapID int, identifier string) (bool, error) {
	if err := requireIdentifier(identifier); err != nil {
		return false, err
	}
	var exists bool
	err := s.withTx(ctx, "topic exists", mapID, func(t *sqlTx) error {
		var err error
		exists, err = t.topicExists(identifier)
		return err
	})
	return exists, err
}

func (t *sqlTx) topicExists(identifier string) (bool, error) {
	var one int
	err := t.queryRow(`SELECT 1 FROM topic WHERE topicmap_identifier = ? AND identifier = ?`,
		t.mapID, identifier).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) SetTopic(ctx context.Context, mapID int, topic api.Topic) error {
	if err := requireIdentifier(topic.Identifier); err != nil {
		return err
	}
	topic = prepareTopic(topic)
	return s.withTx(ctx, "set topic", mapID, func(t *sqlTx) error {
		return t.putTopic(topic)
	})
}

func (s *SQLStore) CreateTopicIfMissing(ctx context.Context, mapID int, topic api.Topic) (bool, error) {
	if err := requireIdentifier(topic.Identifier); err != nil {
		return false, err
	}
	topic = prepareTopic(topic)
	var created bool
	err := s.withTx(ctx, "create topic", mapID, func(t *sqlTx) error {
		exists, err := t.topicExists(topic.Identifier)
		if err != nil || exists {
			return err
		}
		created = true
		return t.putTopic(topic)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (t *sqlTx) putTopic(topic api.Topic) error {
	if err := t.exec(`INSERT INTO topic (topicmap_identifier, identifier, instance_of)
		VALUES (?, ?, ?)
		ON CONFLICT (topicmap_identifier, identifier) DO UPDATE SET instance_of = excluded.instance_of`,
		t.mapID, topic.Identifier, topic.InstanceOf); err != nil {
		return fmt.Errorf("insert topic %s: %w", topic.Identifier, err)
	}
	if err := t.exec(`DELETE FROM basename WHERE topicmap_identifier = ? AND topic_identifier = ?`,
		t.mapID, topic.Identifier); err != nil {
		return err
	}
	for _, bn := range topic.BaseNames {
		if err := t.exec(`INSERT INTO basename (topicmap_identifier, identifier, topic_identifier, name, language)
			VALUES (?, ?, ?, ?, ?)`,
			t.mapID, bn.Identifier, topic.Identifier, bn.Name, string(bn.Language)); err != nil {
			return fmt.Errorf("insert base name for %s: %w", topic.Identifier, err)
		}
	}
	for _, o := range topic.Occurrences {
		if err := t.putOccurrence(o); err != nil {
			return err
		}
	}
	for _, a := range topic.Attributes {
		if err := t.putAttribute(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetTopic(ctx context.Context, mapID int, identifier string, opts api.RetrievalOption) (*api.Topic, error) {
	if err := requireIdentifier(identifier); err != nil {
		return nil, err
	}
	var topic *api.Topic
	err := s.withTx(ctx, "get topic", mapID, func(t *sqlTx) error {
		var instanceOf string
		err := t.queryRow(`SELECT instance_of FROM topic WHERE topicmap_identifier = ? AND identifier = ?`,
			t.mapID, identifier).Scan(&instanceOf)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		topic = &api.Topic{Identifier: identifier, InstanceOf: instanceOf}
		if topic.BaseNames, err = t.baseNames(identifier); err != nil {
			return err
		}
		if opts.Has(api.ResolveAttributes) {
			if topic.Attributes, err = t.attributes(identifier); err != nil {
				return err
			}
		}
		if opts.Has(api.ResolveOccurrences) {
			if topic.Occurrences, err = t.occurrences(identifier, opts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

func (t *sqlTx) baseNames(topic string) ([]api.BaseName, error) {
	rows, err := t.query(`SELECT identifier, name, language FROM basename
		WHERE topicmap_identifier = ? AND topic_identifier = ?
		ORDER BY name, identifier`, t.mapID, topic)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []api.BaseName
	for rows.Next() {
		var bn api.BaseName
		var lang string
		if err := rows.Scan(&bn.Identifier, &bn.Name, &lang); err != nil {
			return nil, fmt.Errorf("scan base name: %w", err)
		}
		bn.Language = api.Language(lang)
		out = append(out, bn)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetTopicIdentifiers(ctx context.Context, mapID int) ([]string, error) {
	var ids []string
	err := s.withTx(ctx, "get topic identifiers", mapID, func(t *sqlTx) error {
		rows, err := t.query(`SELECT identifier FROM topic WHERE topicmap_identifier = ? ORDER BY identifier`, t.mapID)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	return ids, err
}

func (s *SQLStore) DeleteTopic(ctx context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	return s.withTx(ctx, "delete topic", mapID, func(t *sqlTx) error {
		steps := []struct {
			query string
			args  []any
		}{
			{`DELETE FROM attribute WHERE topicmap_identifier = ? AND entity_identifier IN
				(SELECT identifier FROM occurrence WHERE topicmap_identifier = ? AND topic_identifier = ?)`,
				[]any{t.mapID, t.mapID, identifier}},
			{`DELETE FROM occurrence WHERE topicmap_identifier = ? AND topic_identifier = ?`,
				[]any{t.mapID, identifier}},
			{`DELETE FROM attribute WHERE topicmap_identifier = ? AND entity_identifier IN
				(SELECT identifier FROM association WHERE topicmap_identifier = ? AND (src_topic_ref = ? OR dest_topic_ref = ?))`,
				[]any{t.mapID, t.mapID, identifier, identifier}},
			{`DELETE FROM association WHERE topicmap_identifier = ? AND (src_topic_ref = ? OR dest_topic_ref = ?)`,
				[]any{t.mapID, identifier, identifier}},
			{`DELETE FROM basename WHERE topicmap_identifier = ? AND topic_identifier = ?`,
				[]any{t.mapID, identifier}},
			{`DELETE FROM attribute WHERE topicmap_identifier = ? AND entity_identifier = ?`,
				[]any{t.mapID, identifier}},
			{`DELETE FROM topic WHERE topicmap_identifier = ? AND identifier = ?`,
				[]any{t.mapID, identifier}},
		}
		for _, step := range steps {
			if err := t.exec(step.query, step.args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Occurrences ---

const occurrenceColumns = `identifier, instance_of, scope, resource_ref, resource_data, language, topic_identifier`

func (s *SQLStore) SetOccurrence(ctx context.Context, mapID int, occurrence api.Occurrence) error {
	if err := requireIdentifier(occurrence.TopicIdentifier); err != nil {
		return err
	}
	occurrence = prepareOccurrence(occurrence)
	return s.withTx(ctx, "set occurrence", mapID, func(t *sqlTx) error {
		return t.putOccurrence(occurrence)
	})
}

func (t *sqlTx) putOccurrence(o api.Occurrence) error {
	if err := t.exec(`INSERT INTO occurrence (topicmap_identifier, `+occurrenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (topicmap_identifier, identifier) DO UPDATE SET
			instance_of = excluded.instance_of,
			scope = excluded.scope,
			resource_ref = excluded.resource_ref,
			resource_data = excluded.resource_data,
			language = excluded.language,
			topic_identifier = excluded.topic_identifier`,
		t.mapID, o.Identifier, o.InstanceOf, o.Scope, o.ResourceRef, o.ResourceData,
		string(o.Language), o.TopicIdentifier); err != nil {
		return fmt.Errorf("insert occurrence %s: %w", o.Identifier, err)
	}
	for _, a := range o.Attributes {
		if err := t.putAttribute(a); err != nil {
			return err
		}
	}
	return nil
}

func scanOccurrence(sc interface{ Scan(...any) error }) (api.Occurrence, error) {
	var o api.Occurrence
	var data sql.NullString
	var lang string
	if err := sc.Scan(&o.Identifier, &o.InstanceOf, &o.Scope, &o.ResourceRef, &data, &lang, &o.TopicIdentifier); err != nil {
		return o, err
	}
	o.ResourceData = data.String
	o.Language = api.Language(lang)
	return o, nil
}

func (s *SQLStore) GetOccurrence(ctx context.Context, mapID int, identifier string, opts api.RetrievalOption) (*api.Occurrence, error) {
	if err := requireIdentifier(identifier); err != nil {
		return nil, err
	}
	var occ *api.Occurrence
	err := s.withTx(ctx, "get occurrence", mapID, func(t *sqlTx) error {
		o, err := scanOccurrence(t.queryRow(`SELECT `+occurrenceColumns+` FROM occurrence
			WHERE topicmap_identifier = ? AND identifier = ?`, t.mapID, identifier))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if opts.Has(api.ResolveAttributes) {
			if o.Attributes, err = t.attributes(identifier); err != nil {
				return err
			}
		}
		occ = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return occ, nil
}

func (s *SQLStore) GetOccurrences(ctx context.Context, mapID int, topicIdentifier string, opts api.RetrievalOption) ([]api.Occurrence, error) {
	if err := requireIdentifier(topicIdentifier); err != nil {
		return nil, err
	}
	var out []api.Occurrence
	err := s.withTx(ctx, "get occurrences", mapID, func(t *sqlTx) error {
		var err error
		out, err = t.occurrences(topicIdentifier, opts)
		return err
	})
	return out, err
}

func (t *sqlTx) occurrences(topic string, opts api.RetrievalOption) ([]api.Occurrence, error) {
	rows, err := t.query(`SELECT `+occurrenceColumns+` FROM occurrence
		WHERE topicmap_identifier = ? AND topic_identifier = ?
		ORDER BY instance_of, identifier`, t.mapID, topic)
	if err != nil {
		return nil, err
	}
	var out []api.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		out = append(out, o)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, err
	}

	// Resolve after the cursor is closed: a SQLite transaction holds a
	// single connection.
	if opts.Has(api.ResolveAttributes) {
		for i := range out {
			if out[i].Attributes, err = t.attributes(out[i].Identifier); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (s *SQLStore) DeleteOccurrence(ctx context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	return s.withTx(ctx, "delete occurrence", mapID, func(t *sqlTx) error {
		if err := t.exec(`DELETE FROM occurrence WHERE topicmap_identifier = ? AND identifier = ?`,
			t.mapID, identifier); err != nil {
			return err
		}
		return t.exec(`DELETE FROM attribute WHERE topicmap_identifier = ? AND entity_identifier = ?`,
			t.mapID, identifier)
	})
}

func (s *SQLStore) DeleteOccurrences(ctx context.Context, mapID int, topicIdentifier string) error {
	if err := requireIdentifier(topicIdentifier); err != nil {
		return err
	}
	return s.withTx(ctx, "delete occurrences", mapID, func(t *sqlTx) error {
		if err := t.exec(`DELETE FROM attribute WHERE topicmap_identifier = ? AND entity_identifier IN
			(SELECT identifier FROM occurrence WHERE topicmap_identifier = ? AND topic_identifier = ?)`,
			t.mapID, t.mapID, topicIdentifier); err != nil {
			return err
		}
		return t.exec(`DELETE FROM occurrence WHERE topicmap_identifier = ? AND topic_identifier = ?`,
			t.mapID, topicIdentifier)
	})
}

// --- Attributes ---

func (s *SQLStore) SetAttribute(ctx context.Context, mapID int, attribute api.Attribute) error {
	if err := requireIdentifier(attribute.EntityIdentifier); err != nil {
		return err
	}
	attribute = prepareAttribute(attribute)
	return s.withTx(ctx, "set attribute", mapID, func(t *sqlTx) error {
		return t.putAttribute(attribute)
	})
}

func (t *sqlTx) putAttribute(a api.Attribute) error {
	if err := t.exec(`INSERT INTO attribute
		(topicmap_identifier, identifier, entity_identifier, name, value, data_type, scope, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (topicmap_identifier, identifier) DO UPDATE SET
			entity_identifier = excluded.entity_identifier,
			name = excluded.name,
			value = excluded.value,
			data_type = excluded.data_type,
			scope = excluded.scope,
			language = excluded.language`,
		t.mapID, a.Identifier, a.EntityIdentifier, a.Name, a.Value, a.DataType.String(),
		a.Scope, string(a.Language)); err != nil {
		return fmt.Errorf("insert attribute %s: %w", a.Name, err)
	}
	return nil
}

func (s *SQLStore) GetAttributes(ctx context.Context, mapID int, entityIdentifier string) ([]api.Attribute, error) {
	if err := requireIdentifier(entityIdentifier); err != nil {
		return nil, err
	}
	var out []api.Attribute
	err := s.withTx(ctx, "get attributes", mapID, func(t *sqlTx) error {
		var err error
		out, err = t.attributes(entityIdentifier)
		return err
	})
	return out, err
}

func (t *sqlTx) attributes(entity string) ([]api.Attribute, error) {
	rows, err := t.query(`SELECT identifier, name, value, data_type, scope, language FROM attribute
		WHERE topicmap_identifier = ? AND entity_identifier = ?
		ORDER BY name, identifier`, t.mapID, entity)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []api.Attribute
	for rows.Next() {
		a := api.Attribute{EntityIdentifier: entity}
		var dataType, lang string
		if err := rows.Scan(&a.Identifier, &a.Name, &a.Value, &dataType, &a.Scope, &lang); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		if a.DataType, err = api.ParseDataType(dataType); err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Identifier, err)
		}
		a.Language = api.Language(lang)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteAttribute(ctx context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	return s.withTx(ctx, "delete attribute", mapID, func(t *sqlTx) error {
		return t.exec(`DELETE FROM attribute WHERE topicmap_identifier = ? AND identifier = ?`,
			t.mapID, identifier)
	})
}

func (s *SQLStore) DeleteAttributes(ctx context.Context, mapID int, entityIdentifier string) error {
	if err := requireIdentifier(entityIdentifier); err != nil {
		return err
	}
	return s.withTx(ctx, "delete attributes", mapID, func(t *sqlTx) error {
		return t.exec(`DELETE FROM attribute WHERE topicmap_identifier = ? AND entity_identifier = ?`,
			t.mapID, entityIdentifier)
	})
}

// --- Associations ---

const associationColumns = `identifier, instance_of, scope, src_topic_ref, src_role_spec, dest_topic_ref, dest_role_spec`

func (s *SQLStore) SetAssociation(ctx context.Context, mapID int, association api.Association) error {
	if err := requireEnds(association); err != nil {
		return err
	}
	association = prepareAssociation(association)
	return s.withTx(ctx, "set association", mapID, func(t *sqlTx) error {
		return t.putAssociation(association)
	})
}

func (s *SQLStore) CreateAssociationIfMissing(ctx context.Context, mapID int, association api.Association) (bool, error) {
	if err := requireEnds(association); err != nil {
		return false, err
	}
	a := prepareAssociation(association)
	var created bool
	err := s.withTx(ctx, "create association", mapID, func(t *sqlTx) error {
		var one int
		err := t.queryRow(`SELECT 1 FROM association
			WHERE topicmap_identifier = ? AND instance_of = ? AND scope = ?
			AND src_topic_ref = ? AND src_role_spec = ? AND dest_topic_ref = ? AND dest_role_spec = ?
			LIMIT 1`,
			t.mapID, a.InstanceOf, a.Scope, a.SrcTopicRef, a.SrcRoleSpec, a.DestTopicRef, a.DestRoleSpec).Scan(&one)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
		created = true
		return t.putAssociation(a)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (t *sqlTx) putAssociation(a api.Association) error {
	if err := t.exec(`INSERT INTO association (topicmap_identifier, `+associationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (topicmap_identifier, identifier) DO UPDATE SET
			instance_of = excluded.instance_of,
			scope = excluded.scope,
			src_topic_ref = excluded.src_topic_ref,
			src_role_spec = excluded.src_role_spec,
			dest_topic_ref = excluded.dest_topic_ref,
			dest_role_spec = excluded.dest_role_spec`,
		t.mapID, a.Identifier, a.InstanceOf, a.Scope, a.SrcTopicRef, a.SrcRoleSpec,
		a.DestTopicRef, a.DestRoleSpec); err != nil {
		return fmt.Errorf("insert association %s: %w", a, err)
	}
	for _, attr := range a.Attributes {
		if err := t.putAttribute(attr); err != nil {
			return err
		}
	}
	return nil
}

func scanAssociation(sc interface{ Scan(...any) error }) (api.Association, error) {
	var a api.Association
	err := sc.Scan(&a.Identifier, &a.InstanceOf, &a.Scope, &a.SrcTopicRef, &a.SrcRoleSpec, &a.DestTopicRef, &a.DestRoleSpec)
	return a, err
}

func (s *SQLStore) GetAssociation(ctx context.Context, mapID int, identifier string) (*api.Association, error) {
	if err := requireIdentifier(identifier); err != nil {
		return nil, err
	}
	var assoc *api.Association
	err := s.withTx(ctx, "get association", mapID, func(t *sqlTx) error {
		a, err := scanAssociation(t.queryRow(`SELECT `+associationColumns+` FROM association
			WHERE topicmap_identifier = ? AND identifier = ?`, t.mapID, identifier))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if a.Attributes, err = t.attributes(identifier); err != nil {
			return err
		}
		assoc = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assoc, nil
}

func (s *SQLStore) GetAssociations(ctx context.Context, mapID int, topicIdentifier string) ([]api.Association, error) {
	if err := requireIdentifier(topicIdentifier); err != nil {
		return nil, err
	}
	var out []api.Association
	err := s.withTx(ctx, "get associations", mapID, func(t *sqlTx) error {
		rows, err := t.query(`SELECT `+associationColumns+` FROM association
			WHERE topicmap_identifier = ? AND (src_topic_ref = ? OR dest_topic_ref = ?)
			ORDER BY instance_of, src_topic_ref, src_role_spec, dest_topic_ref, dest_role_spec, identifier`,
			t.mapID, topicIdentifier, topicIdentifier)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			a, err := scanAssociation(rows)
			if err != nil {
				return fmt.Errorf("scan association: %w", err)
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	sortAssociations(out)
	return out, nil
}

func (s *SQLStore) DeleteAssociation(ctx context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	return s.withTx(ctx, "delete association", mapID, func(t *sqlTx) error {
		if err := t.exec(`DELETE FROM association WHERE topicmap_identifier = ? AND identifier = ?`,
			t.mapID, identifier); err != nil {
			return err
		}
		return t.exec(`DELETE FROM attribute WHERE topicmap_identifier = ? AND entity_identifier = ?`,
			t.mapID, identifier)
	})
}

// Interface compliance
var _ Store = (*SQLStore)(nil)
