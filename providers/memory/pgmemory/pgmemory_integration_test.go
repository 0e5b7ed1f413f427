//go:build integration

package pgmemory

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/leofalp/chatlog/providers/ai"
)

// testPool is a shared connection pool created once in TestMain
// and reused across all integration test functions.
var testPool *pgxpool.Pool

// TestMain spins up a PostgreSQL container via testcontainers-go, creates the
// schema, and tears everything down after all tests complete.
func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("chatlog_test"),
		postgres.WithUsername("chatlog"),
		postgres.WithPassword("chatlog"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("pgmemory: failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("pgmemory: failed to get connection string: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("pgmemory: failed to create pool: %v", err)
	}

	if err := New(testPool, "setup").EnsureSchema(ctx); err != nil {
		log.Fatalf("pgmemory: failed to create schema: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Printf("pgmemory: failed to terminate container: %v", err)
	}

	os.Exit(code)
}

// newTestMemory returns a PgMemory scoped to a unique session, guaranteeing
// test isolation without per-test table cleanup.
func newTestMemory(t *testing.T) *PgMemory {
	t.Helper()
	return New(testPool, "test-"+t.Name())
}

func mustAppend(t *testing.T, mem *PgMemory, msg ai.Message) {
	t.Helper()
	if err := mem.AppendMessage(context.Background(), &msg); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
}

func TestPgMemory_AppendAndAllMessages(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	mustAppend(t, mem, ai.NewUserMessage("hi"))
	mustAppend(t, mem, ai.NewAssistantMessage("hello"))

	count, err := mem.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("Count() = %d, %v; want 2", count, err)
	}

	all, err := mem.AllMessages(ctx)
	if err != nil {
		t.Fatalf("AllMessages() error = %v", err)
	}
	if all[0].ContentOrEmpty() != "hi" || all[1].ContentOrEmpty() != "hello" {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestPgMemory_LastMessages(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		mustAppend(t, mem, ai.NewUserMessage(content))
	}

	last, err := mem.LastMessages(ctx, 2)
	if err != nil {
		t.Fatalf("LastMessages() error = %v", err)
	}
	if len(last) != 2 || last[0].ContentOrEmpty() != "d" || last[1].ContentOrEmpty() != "e" {
		t.Fatalf("unexpected last messages: %+v", last)
	}
}

func TestPgMemory_PopLastAndClear(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	if msg, err := mem.PopLastMessage(ctx); msg != nil || err != nil {
		t.Fatalf("PopLastMessage() on empty = %+v, %v", msg, err)
	}

	mustAppend(t, mem, ai.NewUserMessage("1"))
	mustAppend(t, mem, ai.NewUserMessage("2"))

	msg, err := mem.PopLastMessage(ctx)
	if err != nil || msg == nil || msg.ContentOrEmpty() != "2" {
		t.Fatalf("PopLastMessage() = %+v, %v; want 2", msg, err)
	}

	if err := mem.ClearMessages(ctx); err != nil {
		t.Fatalf("ClearMessages() error = %v", err)
	}
	if count, _ := mem.Count(ctx); count != 0 {
		t.Fatalf("expected 0 after clear, got %d", count)
	}
}

func TestPgMemory_FilterByRole(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	mustAppend(t, mem, ai.NewUserMessage("u1"))
	mustAppend(t, mem, ai.NewAssistantMessage("a1"))
	mustAppend(t, mem, ai.NewUserMessage("u2"))

	users, err := mem.FilterByRole(ctx, ai.RoleUser)
	if err != nil || len(users) != 2 {
		t.Fatalf("FilterByRole() = %+v, %v", users, err)
	}
}

func TestPgMemory_SessionIsolation(t *testing.T) {
	ctx := context.Background()
	first := New(testPool, "isolation-a")
	second := New(testPool, "isolation-b")
	t.Cleanup(func() {
		_ = first.ClearMessages(ctx)
		_ = second.ClearMessages(ctx)
	})

	mustAppend(t, first, ai.NewUserMessage("only in a"))

	if count, _ := second.Count(ctx); count != 0 {
		t.Fatalf("session b sees %d messages from session a", count)
	}
}

// TestPgMemory_PayloadRoundTrip verifies that irregular values and
// passthrough fields read back exactly as they were written.
func TestPgMemory_PayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	raw := `{"role":"assistant","content":null,"tool_calls":[{"id":"c1","type":"function","function":{"name":"search","arguments":"{\"q\":\"go\"}"}},"broken"],"_metadata":{"source":"fixture"}}`
	var msg ai.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	mustAppend(t, mem, msg)

	all, err := mem.AllMessages(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("AllMessages() = %+v, %v", all, err)
	}
	got := all[0]
	if got.Content != nil || !got.HasExtra("content") {
		t.Errorf("explicit null content not preserved: %+v", got)
	}
	if len(got.ToolCalls) != 2 || got.ToolCalls[1].WellFormed() {
		t.Errorf("tool calls not preserved: %+v", got.ToolCalls)
	}
	if !got.HasExtra("_metadata") {
		t.Errorf("passthrough field lost: %+v", got)
	}
}

func TestPgMemory_WithTableName(t *testing.T) {
	ctx := context.Background()
	mem := New(testPool, "custom-"+t.Name(), WithTableName("chatlog_custom"))
	if err := mem.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	mustAppend(t, mem, ai.NewSystemMessage("custom table"))
	if count, err := mem.Count(ctx); err != nil || count != 1 {
		t.Fatalf("Count() = %d, %v; want 1", count, err)
	}
}
