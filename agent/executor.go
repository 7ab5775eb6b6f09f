package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

// resultLimit caps per-message content returned to the model by the
// conversation tools.
const resultLimit = 500

// Executor dispatches tool calls by name. Tools that read conversations run
// in their own short-lived read-only transaction.
type Executor struct {
	db *sql.DB
}

// NewExecutor returns an Executor backed by the given database. db may be
// nil, in which case conversation tools report an error result.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs the named tool and returns its JSON-encoded result. Tool
// failures are returned as an error-shaped result with a nil error so the
// model can react to them; a non-nil error means the call could not be
// dispatched at all.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	var result any
	var err error

	switch name {
	case "current_time":
		result, err = e.currentTime(args)
	case "calculator":
		result, err = e.calculate(args)
	case "search_threads":
		result, err = e.searchThreads(ctx, args)
	case "read_thread":
		result, err = e.readThread(ctx, args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error()), nil
	}

	content, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("could not marshal %s result: %w", name, err)
	}
	return string(content), nil
}

func (e *Executor) currentTime(args map[string]any) (any, error) {
	loc := time.Local
	if tz := getString(args, "timezone"); tz != "" {
		var err error
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("unknown timezone: %s", tz)
		}
	}

	now := time.Now().In(loc)
	return map[string]any{
		"time":     now.Format(time.RFC3339),
		"weekday":  now.Weekday().String(),
		"timezone": loc.String(),
	}, nil
}

func (e *Executor) calculate(args map[string]any) (any, error) {
	op := getString(args, "op")
	a, aOK := getFloat(args, "a")
	b, bOK := getFloat(args, "b")
	if !aOK || !bOK {
		return nil, errors.New("a and b must be numbers")
	}

	var result float64
	switch op {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return nil, errors.New("cannot divide by zero")
		}
		result = a / b
	default:
		return nil, fmt.Errorf("unknown op: %s", op)
	}

	return map[string]any{"result": result}, nil
}

func (e *Executor) searchThreads(ctx context.Context, args map[string]any) (any, error) {
	query := getString(args, "query")
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	var found []map[string]any
	err := e.inReadTx(ctx, func(ctx context.Context) error {
		threads, err := api.QueryThreads(ctx, query, 10)
		if err != nil {
			return err
		}
		for _, t := range threads {
			found = append(found, map[string]any{
				"id":      t.ID,
				"title":   t.Title,
				"updated": t.UpdatedAt.Format(time.RFC3339),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{"threads": found, "count": len(found)}, nil
}

func (e *Executor) readThread(ctx context.Context, args map[string]any) (any, error) {
	id := getString(args, "thread_id")
	if id == "" {
		return nil, errors.New("thread_id must not be empty")
	}

	var result map[string]any
	err := e.inReadTx(ctx, func(ctx context.Context) error {
		thread, err := api.ReadThread(ctx, id, true)
		if err != nil {
			return err
		}
		if thread == nil {
			return fmt.Errorf("thread %s does not exist", id)
		}

		var messages []map[string]any
		for _, m := range thread.Messages {
			messages = append(messages, map[string]any{
				"role":    m.Role,
				"content": truncate(m.Content, resultLimit),
			})
		}
		result = map[string]any{
			"id":       thread.ID,
			"title":    thread.Title,
			"messages": messages,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// inReadTx runs f with a read-only transaction in the context, the way the
// store layer expects to find one.
func (e *Executor) inReadTx(ctx context.Context, f func(ctx context.Context) error) error {
	if e.db == nil {
		return errors.New("conversation store is not available")
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	return f(context.WithValue(ctx, api.TransactionKey, tx))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	// back off a cut that split a multi-byte character
	for i := 0; i < 3 && len(cut) > 0 && !utf8.ValidString(cut); i++ {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

func getString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func getFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
