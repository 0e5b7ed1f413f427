package pgmemory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leofalp/chatlog/providers/ai"
	"github.com/leofalp/chatlog/providers/memory"
	"github.com/leofalp/chatlog/providers/observability"
)

// defaultTableName is the PostgreSQL table used when no custom name is provided.
const defaultTableName = "chatlog_messages"

// Querier abstracts the pgx query methods needed by PgMemory.
// Both *pgxpool.Pool and pgx.Tx satisfy this interface, allowing
// callers to inject either a connection pool or a single transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxQuerier extends Querier with transaction support. *pgxpool.Pool satisfies
// this interface but pgx.Tx does not. PopLastMessage uses a transaction when
// the db is a TxQuerier and falls back to SELECT then DELETE otherwise.
type TxQuerier interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgMemory implements [memory.Provider] with PostgreSQL persistence.
// Each instance is scoped to a single session (one transcript). Every message
// is stored as its full JSON encoding in a JSONB payload column, so
// passthrough fields and irregular values read back exactly as written.
// The role is duplicated into its own column for FilterByRole.
type PgMemory struct {
	db        Querier
	sessionID string
	tableName string
}

// Compile-time check: PgMemory must implement memory.Provider.
var _ memory.Provider = (*PgMemory)(nil)

// Option configures optional PgMemory behavior.
type Option func(*PgMemory)

// WithTableName overrides the default table name ("chatlog_messages").
// The name is sanitized via pgx.Identifier since it is interpolated into
// queries via fmt.Sprintf.
func WithTableName(name string) Option {
	return func(m *PgMemory) {
		m.tableName = pgx.Identifier{name}.Sanitize()
	}
}

// New creates a PostgreSQL-backed transcript store for the given session.
// The db parameter must be a pgx-compatible query executor (typically
// *pgxpool.Pool).
func New(db Querier, sessionID string, opts ...Option) *PgMemory {
	pgMemory := &PgMemory{
		db:        db,
		sessionID: sessionID,
		tableName: defaultTableName,
	}
	for _, opt := range opts {
		opt(pgMemory)
	}
	return pgMemory
}

// SessionID returns the session this store is scoped to.
func (m *PgMemory) SessionID() string {
	return m.sessionID
}

// AppendMessage persists a message. A nil message is ignored.
func (m *PgMemory) AppendMessage(ctx context.Context, message *ai.Message) error {
	if message == nil {
		return nil
	}

	payload, err := message.MarshalJSON()
	if err != nil {
		return fmt.Errorf("pgmemory: encode message: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemorySessionID, m.sessionID),
			observability.String(observability.AttrMemoryMessageRole, message.Role.Label()),
			observability.Int(observability.AttrMemoryMessageLength, len(message.ContentOrEmpty())),
		)
	}

	query := fmt.Sprintf(`INSERT INTO %s (session_id, role, payload) VALUES ($1, $2, $3)`, m.tableName)
	if _, err := m.db.Exec(ctx, query, m.sessionID, string(message.Role), payload); err != nil {
		return fmt.Errorf("pgmemory: append message: %w", err)
	}
	return nil
}

// Count returns the number of messages stored for this session.
func (m *PgMemory) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = $1`, m.tableName)

	var count int
	if err := m.db.QueryRow(ctx, query, m.sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgmemory: count: %w", err)
	}
	return count, nil
}

// AllMessages returns all messages for this session in insertion order
// (ordered by the monotonic seq column).
func (m *PgMemory) AllMessages(ctx context.Context) ([]ai.Message, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE session_id = $1 ORDER BY seq ASC`, m.tableName)

	rows, err := m.db.Query(ctx, query, m.sessionID)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: all messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// LastMessages returns the last n messages in chronological order: the
// subquery fetches the newest n rows, the outer query re-orders them
// oldest-first. Returns an empty slice when n is zero or negative.
func (m *PgMemory) LastMessages(ctx context.Context, n int) ([]ai.Message, error) {
	if n <= 0 {
		return []ai.Message{}, nil
	}

	query := fmt.Sprintf(`SELECT payload FROM (
			SELECT seq, payload FROM %s WHERE session_id = $1 ORDER BY seq DESC LIMIT $2
		) sub ORDER BY sub.seq ASC`, m.tableName)

	rows, err := m.db.Query(ctx, query, m.sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: last messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// PopLastMessage removes and returns the most recent message for this session.
// When the underlying db implements TxQuerier the operation is atomic
// (BEGIN, DELETE … RETURNING, COMMIT). Otherwise a SELECT then DELETE is used.
// Returns (nil, nil) when the session has no messages.
func (m *PgMemory) PopLastMessage(ctx context.Context) (*ai.Message, error) {
	if txDB, ok := m.db.(TxQuerier); ok {
		return m.popLastMessageAtomic(ctx, txDB)
	}
	return m.popLastMessageFallback(ctx)
}

func (m *PgMemory) popLastMessageAtomic(ctx context.Context, txDB TxQuerier) (*ai.Message, error) {
	tx, err := txDB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: pop begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	query := fmt.Sprintf(`DELETE FROM %s
		WHERE id = (
			SELECT id FROM %s WHERE session_id = $1 ORDER BY seq DESC LIMIT 1
		)
		RETURNING payload`,
		m.tableName, m.tableName)

	var payload []byte
	if err := tx.QueryRow(ctx, query, m.sessionID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgmemory: pop delete: %w", err)
	}
	msg, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pgmemory: pop commit tx: %w", err)
	}
	return &msg, nil
}

func (m *PgMemory) popLastMessageFallback(ctx context.Context) (*ai.Message, error) {
	selectQuery := fmt.Sprintf(`SELECT id, payload FROM %s WHERE session_id = $1 ORDER BY seq DESC LIMIT 1`, m.tableName)

	var rowID string
	var payload []byte
	if err := m.db.QueryRow(ctx, selectQuery, m.sessionID).Scan(&rowID, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgmemory: pop select: %w", err)
	}
	msg, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, m.tableName)
	if _, err := m.db.Exec(ctx, deleteQuery, rowID); err != nil {
		return nil, fmt.Errorf("pgmemory: pop delete: %w", err)
	}
	return &msg, nil
}

// ClearMessages deletes all messages for this session.
func (m *PgMemory) ClearMessages(ctx context.Context) error {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear,
			observability.String(observability.AttrMemorySessionID, m.sessionID),
		)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, m.tableName)
	if _, err := m.db.Exec(ctx, query, m.sessionID); err != nil {
		return fmt.Errorf("pgmemory: clear messages: %w", err)
	}
	return nil
}

// FilterByRole returns all messages matching role for this session, in
// chronological order. Returns an empty slice when no messages match.
func (m *PgMemory) FilterByRole(ctx context.Context, role ai.MessageRole) ([]ai.Message, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE session_id = $1 AND role = $2 ORDER BY seq ASC`, m.tableName)

	rows, err := m.db.Query(ctx, query, m.sessionID, string(role))
	if err != nil {
		return nil, fmt.Errorf("pgmemory: filter by role: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// scanMessages decodes the payload column of every row.
// Returns an empty non-nil slice when no rows are present.
func scanMessages(rows pgx.Rows) ([]ai.Message, error) {
	messages := []ai.Message{}

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("pgmemory: scan row: %w", err)
		}
		msg, err := decodePayload(payload)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmemory: iterate rows: %w", err)
	}
	return messages, nil
}

func decodePayload(payload []byte) (ai.Message, error) {
	var msg ai.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ai.Message{}, fmt.Errorf("pgmemory: decode payload: %w", err)
	}
	return msg, nil
}
