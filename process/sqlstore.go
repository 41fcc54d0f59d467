package process

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lumenforge/lumen/values"
)

// SQLMemoryStore is a MemoryBackend persisted through database/sql,
// dispatched across mysql/postgres/sqlite by DSN scheme the same way
// the teacher's driver package picks a concrete PDO driver from a
// connection string prefix. Values are stored JSON-encoded via
// Display/parse round-trip through the standard library encoder,
// since the value model itself has no wire codec of its own.
type SQLMemoryStore struct {
	db        *sql.DB
	logTable  string
	kvTable   string
}

// dialFor maps a DSN's scheme prefix to a database/sql driver name and
// strips the scheme, matching each of go-sql-driver/mysql, lib/pq, and
// modernc.org/sqlite's expected DSN shapes.
func dialFor(dsn string) (driver, cleanDSN string, err error) {
	switch {
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", strings.TrimPrefix(dsn, "mysql://"), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), nil
	default:
		return "", "", fmt.Errorf("process: unrecognized memory backend DSN scheme in %q", dsn)
	}
}

// OpenSQLMemoryStore opens (creating if absent) a two-table memory
// store for process instance processName: an append-only log table
// and a key/value upsert table, both namespaced by processName so one
// database can back every Memory process a module declares.
func OpenSQLMemoryStore(dsn, processName string) (*SQLMemoryStore, error) {
	driver, cleanDSN, err := dialFor(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, cleanDSN)
	if err != nil {
		return nil, fmt.Errorf("process: opening memory backend: %w", err)
	}
	safe := sanitizeTableSuffix(processName)
	s := &SQLMemoryStore{
		db:       db,
		logTable: "lumen_memory_log_" + safe,
		kvTable:  "lumen_memory_kv_" + safe,
	}
	if err := s.ensureSchema(driver); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func sanitizeTableSuffix(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (s *SQLMemoryStore) ensureSchema(driver string) error {
	autoIncrement := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "mysql" {
		autoIncrement = "INTEGER PRIMARY KEY AUTO_INCREMENT"
	} else if driver == "postgres" {
		autoIncrement = "SERIAL PRIMARY KEY"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id %s, payload TEXT NOT NULL)`, s.logTable, autoIncrement),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (k VARCHAR(255) PRIMARY KEY, payload TEXT NOT NULL)`, s.kvTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("process: preparing memory schema: %w", err)
		}
	}
	return nil
}

func (s *SQLMemoryStore) Append(entry values.Value) error {
	payload, err := encodeValue(entry)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(`INSERT INTO %s (payload) VALUES (?)`, s.logTable), payload)
	return err
}

func (s *SQLMemoryStore) Recent(n int) ([]values.Value, error) {
	if n <= 0 {
		n = 1 << 30
	}
	rows, err := s.db.Query(fmt.Sprintf(`SELECT payload FROM %s ORDER BY id DESC LIMIT ?`, s.logTable), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []values.Value
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		v, err := decodeValue(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

func (s *SQLMemoryStore) Upsert(key string, val values.Value) error {
	payload, err := encodeValue(val)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (k, payload) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET payload=excluded.payload`,
		s.kvTable), key, payload)
	return err
}

func (s *SQLMemoryStore) Get(key string) (values.Value, bool, error) {
	row := s.db.QueryRow(fmt.Sprintf(`SELECT payload FROM %s WHERE k = ?`, s.kvTable), key)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return values.Value{}, false, nil
		}
		return values.Value{}, false, err
	}
	v, err := decodeValue(payload)
	return v, true, err
}

func (s *SQLMemoryStore) Close() error { return s.db.Close() }

// encodeValue/decodeValue give the SQL-backed store a concrete wire
// format: plain JSON over the value's Display-able scalar shape. This
// is a storage convenience, not the module's own serialization
// format, so only scalars, lists, and string-keyed maps round-trip.
func encodeValue(v values.Value) (string, error) {
	b, err := json.Marshal(jsonable(v))
	if err != nil {
		return "", fmt.Errorf("process: encoding memory value: %w", err)
	}
	return string(b), nil
}

func jsonable(v values.Value) interface{} {
	switch v.Kind {
	case values.KindNull:
		return nil
	case values.KindBool:
		b, _ := v.AsBool()
		return b
	case values.KindInt:
		i, _ := v.AsInt()
		return i
	case values.KindFloat:
		f, _ := v.AsFloat()
		return f
	case values.KindString:
		ref, _ := v.AsStringRef()
		return ref.Owned
	case values.KindList:
		lb := v.Data.(*values.ListBox)
		items := lb.Items()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = jsonable(item)
		}
		return out
	case values.KindMap:
		mb := v.Data.(*values.MapBox)
		out := make(map[string]interface{}, mb.Len())
		for _, k := range mb.Keys() {
			item, _ := mb.Get(k)
			out[k] = jsonable(item)
		}
		return out
	default:
		return values.Display(v, nil)
	}
}

func decodeValue(payload string) (values.Value, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return values.Value{}, fmt.Errorf("process: decoding memory value: %w", err)
	}
	return fromJSONable(raw), nil
}

func fromJSONable(raw interface{}) values.Value {
	switch t := raw.(type) {
	case nil:
		return values.Null()
	case bool:
		return values.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return values.Int(int64(t))
		}
		return values.Float(t)
	case string:
		return values.Str(t)
	case []interface{}:
		items := make([]values.Value, len(t))
		for i, item := range t {
			items[i] = fromJSONable(item)
		}
		return values.NewList(items)
	case map[string]interface{}:
		mb := values.NewMap()
		for k, item := range t {
			mb.Set(k, fromJSONable(item))
		}
		return values.Value{Kind: values.KindMap, Data: mb}
	default:
		return values.Null()
	}
}
