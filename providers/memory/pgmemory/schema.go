package pgmemory

import (
	"context"
	"fmt"
	"strings"
)

// createTableSQL creates the transcript table. The payload column holds the
// message's complete JSON encoding; role is denormalized for filtering.
//
// The seq column (BIGSERIAL) provides monotonic ordering within a session,
// avoiding timestamp collisions between messages inserted in one burst.
const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    seq        BIGSERIAL NOT NULL,
    session_id TEXT NOT NULL,
    role       TEXT NOT NULL DEFAULT '',
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// createSessionSeqIndexSQL creates the primary lookup index: all messages
// for a session ordered by insertion sequence.
const createSessionSeqIndexSQL = `CREATE INDEX IF NOT EXISTS %s
    ON %s (session_id, seq)`

// createSessionRoleIndexSQL creates the index used by FilterByRole.
const createSessionRoleIndexSQL = `CREATE INDEX IF NOT EXISTS %s
    ON %s (session_id, role)`

// EnsureSchema creates the transcript table and its indexes if they do not
// already exist. Production deployments should manage the schema with
// migration tooling instead.
func (m *PgMemory) EnsureSchema(ctx context.Context) error {
	tableSQL := fmt.Sprintf(createTableSQL, m.tableName)
	if _, err := m.db.Exec(ctx, tableSQL); err != nil {
		return fmt.Errorf("pgmemory: create table: %w", err)
	}

	seqIdxSQL := fmt.Sprintf(createSessionSeqIndexSQL, m.indexName("session_seq"), m.tableName)
	if _, err := m.db.Exec(ctx, seqIdxSQL); err != nil {
		return fmt.Errorf("pgmemory: create session_seq index: %w", err)
	}

	roleIdxSQL := fmt.Sprintf(createSessionRoleIndexSQL, m.indexName("session_role"), m.tableName)
	if _, err := m.db.Exec(ctx, roleIdxSQL); err != nil {
		return fmt.Errorf("pgmemory: create session_role index: %w", err)
	}

	return nil
}

// indexName derives an unquoted index name from the table name, which may
// already be a sanitized, quoted identifier.
func (m *PgMemory) indexName(suffix string) string {
	table := strings.ReplaceAll(strings.Trim(m.tableName, `"`), `"`, "")
	table = strings.ReplaceAll(table, ".", "_")
	return fmt.Sprintf("idx_%s_%s", table, suffix)
}
