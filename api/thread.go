package api

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

//DefaultThreadTitle is the title given to threads created without one
const DefaultThreadTitle = "New conversation"

//Thread represents a conversation thread
type Thread struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages,omitempty"`
}

//Validate cleans and validates the given Thread
func (t *Thread) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		t.Title = DefaultThreadTitle
	}
	return ValidateString("title", t.Title, 255)
}

//CreateThread creates a new Thread with the given title and returns it
func CreateThread(ctx context.Context, title string) (*Thread, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	thread := &Thread{ID: uuid.NewString(), Title: title}
	if err := thread.Validate(); err != nil {
		return nil, &Error{Description: "Could not validate Thread", Type: ErrorTypeUser, Err: err}
	}

	now := time.Now()
	thread.CreatedAt = now
	thread.UpdatedAt = now

	_, err := tx.Exec("INSERT INTO thread(id, title, created_at, updated_at) VALUES(?, ?, ?, ?);",
		thread.ID, thread.Title, thread.CreatedAt, thread.UpdatedAt)
	if err != nil {
		return nil, &Error{Description: "Could not insert Thread", Type: ErrorTypeServer, Err: err}
	}

	return thread, nil
}

//ReadThread returns the Thread with the given id, or nil if it doesn't exist.
//If includeMessages is true, the Messages field is populated
func ReadThread(ctx context.Context, id string, includeMessages bool) (*Thread, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	thread := &Thread{ID: id}
	row := tx.QueryRow("SELECT title, created_at, updated_at FROM thread WHERE id=?;", id)

	err := row.Scan(&(thread.Title), &(thread.CreatedAt), &(thread.UpdatedAt))
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, &Error{Description: fmt.Sprintf("Could not query Thread(%s)", id), Type: ErrorTypeServer, Err: err}
	}

	if includeMessages {
		messages, err := ReadMessages(ctx, id)
		if err != nil {
			return nil, err
		}
		thread.Messages = messages
	}

	return thread, nil
}

//UpdateThreadTitle sets a new title on the Thread with the given id
func UpdateThreadTitle(ctx context.Context, id, title string) (*Thread, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	thread := &Thread{ID: id, Title: title}
	if err := thread.Validate(); err != nil {
		return nil, &Error{Description: "Could not validate Thread", Type: ErrorTypeUser, Err: err}
	}

	_, err := tx.Exec("UPDATE thread SET title=?, updated_at=? WHERE id=?;", thread.Title, time.Now(), id)
	if err != nil {
		return nil, &Error{Description: fmt.Sprintf("Could not update Thread(%s)", id), Type: ErrorTypeServer, Err: err}
	}

	return ReadThread(ctx, id, false)
}

//TouchThread bumps the Thread's updated_at so recent activity sorts first
func TouchThread(ctx context.Context, id string) error {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	if _, err := tx.Exec("UPDATE thread SET updated_at=? WHERE id=?;", time.Now(), id); err != nil {
		return &Error{Description: fmt.Sprintf("Could not touch Thread(%s)", id), Type: ErrorTypeServer, Err: err}
	}
	return nil
}

//DeleteThread removes the Thread with the given id and all of its Messages,
//returning whether it existed
func DeleteThread(ctx context.Context, id string) (bool, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	if _, err := tx.Exec("DELETE FROM message WHERE thread_id=?;", id); err != nil {
		return false, &Error{Description: fmt.Sprintf("Could not delete Messages for Thread(%s)", id), Type: ErrorTypeServer, Err: err}
	}

	res, err := tx.Exec("DELETE FROM thread WHERE id=?;", id)
	if err != nil {
		return false, &Error{Description: fmt.Sprintf("Could not delete Thread(%s)", id), Type: ErrorTypeServer, Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &Error{Description: fmt.Sprintf("Could not read rows affected for Thread(%s)", id), Type: ErrorTypeServer, Err: err}
	}

	return n > 0, nil
}

//QueryThreads returns threads ordered by most recent activity.
//If search is not empty, only threads whose title or message content matches are returned.
//If limit is not positive a default of 50 is used
func QueryThreads(ctx context.Context, search string, limit int) ([]*Thread, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error

	if search == "" {
		rows, err = tx.Query("SELECT id, title, created_at, updated_at FROM thread ORDER BY updated_at DESC LIMIT ?;", limit)
	} else {
		pattern := "%" + search + "%"
		rows, err = tx.Query(`SELECT DISTINCT t.id, t.title, t.created_at, t.updated_at
			FROM thread AS t LEFT JOIN message AS m ON m.thread_id = t.id
			WHERE t.title LIKE ? OR m.content LIKE ?
			ORDER BY t.updated_at DESC LIMIT ?;`, pattern, pattern, limit)
	}
	if err != nil {
		return nil, &Error{Description: "Could not query Threads", Type: ErrorTypeServer, Err: err}
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		thread := new(Thread)
		if err := rows.Scan(&(thread.ID), &(thread.Title), &(thread.CreatedAt), &(thread.UpdatedAt)); err != nil {
			return nil, &Error{Description: "Could not scan Thread row", Type: ErrorTypeServer, Err: err}
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Description: "Could not read Thread rows", Type: ErrorTypeServer, Err: err}
	}

	return threads, nil
}
