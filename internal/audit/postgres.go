package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps the trail in an audit_entries table. ListByToken is
// cached; appends invalidate the token's cache line.
type Postgres struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	listCache *lru.Cache[string, []Entry]
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, []Entry](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db, listCache: cache}, nil
}

func (p *Postgres) ensureSchema() error {
	p.schemaOnce.Do(func() {
		_, p.schemaErr = p.db.Exec(`
CREATE TABLE IF NOT EXISTS audit_entries (
  id BIGSERIAL PRIMARY KEY,
  token TEXT NOT NULL,
  event TEXT NOT NULL,
  command JSONB NOT NULL,
  at TIMESTAMP WITH TIME ZONE NOT NULL,
  note TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_token ON audit_entries (token);
`)
	})
	return p.schemaErr
}

func (p *Postgres) Append(ctx context.Context, e Entry) error {
	if err := p.ensureSchema(); err != nil {
		return err
	}
	cmd, err := json.Marshal(e.Command)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO audit_entries (token, event, command, at, note)
VALUES ($1,$2,$3,$4,$5)`,
		e.Token, e.Event, cmd, e.At, e.Note)
	if err != nil {
		return err
	}
	p.listCache.Remove(e.Token)
	return nil
}

func (p *Postgres) ListByToken(ctx context.Context, token string) ([]Entry, error) {
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	if cached, ok := p.listCache.Get(token); ok {
		out := make([]Entry, len(cached))
		copy(out, cached)
		return out, nil
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT token, event, command, at, note
FROM audit_entries WHERE token = $1 ORDER BY id`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Entry
	for rows.Next() {
		var e Entry
		var cmd []byte
		if err := rows.Scan(&e.Token, &e.Event, &cmd, &e.At, &e.Note); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cmd, &e.Command); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.listCache.Add(token, list)
	return list, nil
}

func (p *Postgres) Close() error { return p.db.Close() }
