package api

import (
	"context"
	"database/sql"
)

//StatsThread represents per-Thread message counts
type StatsThread struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

//StatsRole represents per-role message counts
type StatsRole struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

//Stats represents conversation statistics (top 10, etc)
type Stats struct {
	ThreadCount    int            `json:"thread_count"`
	MessageCount   int            `json:"message_count"`
	MCPServerCount int            `json:"mcpserver_count"`
	UploadCount    int            `json:"upload_count"`
	UploadBytes    int64          `json:"upload_bytes"`
	Roles          []*StatsRole   `json:"roles"`
	Busiest        []*StatsThread `json:"busiest"`
	Recent         []*Thread      `json:"recent"`
}

//ReadStats returns Stats, or an error if one occurred.
func ReadStats(ctx context.Context) (*Stats, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	s := new(Stats)

	//ThreadCount
	row := tx.QueryRow("SELECT COUNT(id) FROM thread;")
	err := row.Scan(&(s.ThreadCount))

	switch {
	case err == sql.ErrNoRows:
		return nil, &Error{Description: "Could not query Stats.ThreadCount: ErrNoRows", Type: ErrorTypeServer, Err: err}
	case err != nil:
		return nil, &Error{Description: "Could not query Stats.ThreadCount", Type: ErrorTypeServer, Err: err}
	}

	//MessageCount
	row = tx.QueryRow("SELECT COUNT(id) FROM message;")
	err = row.Scan(&(s.MessageCount))

	switch {
	case err == sql.ErrNoRows:
		return nil, &Error{Description: "Could not query Stats.MessageCount: ErrNoRows", Type: ErrorTypeServer, Err: err}
	case err != nil:
		return nil, &Error{Description: "Could not query Stats.MessageCount", Type: ErrorTypeServer, Err: err}
	}

	//MCPServerCount
	row = tx.QueryRow("SELECT COUNT(id) FROM mcpserver;")
	err = row.Scan(&(s.MCPServerCount))

	switch {
	case err == sql.ErrNoRows:
		return nil, &Error{Description: "Could not query Stats.MCPServerCount: ErrNoRows", Type: ErrorTypeServer, Err: err}
	case err != nil:
		return nil, &Error{Description: "Could not query Stats.MCPServerCount", Type: ErrorTypeServer, Err: err}
	}

	//UploadCount, UploadBytes
	row = tx.QueryRow("SELECT COUNT(id), COALESCE(SUM(size), 0) FROM upload;")
	err = row.Scan(&(s.UploadCount), &(s.UploadBytes))

	switch {
	case err == sql.ErrNoRows:
		return nil, &Error{Description: "Could not query Stats.UploadCount: ErrNoRows", Type: ErrorTypeServer, Err: err}
	case err != nil:
		return nil, &Error{Description: "Could not query Stats.UploadCount", Type: ErrorTypeServer, Err: err}
	}

	//Roles
	rows, err := tx.Query("SELECT role, COUNT(id) as c FROM message GROUP BY role ORDER BY c DESC;")
	if err != nil {
		return nil, &Error{Description: "Could not query Stats.Roles", Type: ErrorTypeServer, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		r := new(StatsRole)

		sErr := rows.Scan(&(r.Role), &(r.Count))
		if sErr != nil {
			return nil, &Error{Description: "Could not scan Stats.Roles row", Type: ErrorTypeServer, Err: sErr}
		}

		s.Roles = append(s.Roles, r)
	}

	err = rows.Err()
	if err != nil {
		return nil, &Error{Description: "Could not scan Stats.Roles rows", Type: ErrorTypeServer, Err: err}
	}

	//Busiest
	rows, err = tx.Query("SELECT t.id, t.title, COUNT(m.id) as c FROM thread AS t JOIN message AS m ON m.thread_id = t.id GROUP BY t.id ORDER BY c DESC LIMIT 10;")
	if err != nil {
		return nil, &Error{Description: "Could not query Stats.Busiest", Type: ErrorTypeServer, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		t := new(StatsThread)

		sErr := rows.Scan(&(t.ID), &(t.Title), &(t.Count))
		if sErr != nil {
			return nil, &Error{Description: "Could not scan Stats.Busiest row", Type: ErrorTypeServer, Err: sErr}
		}

		s.Busiest = append(s.Busiest, t)
	}

	err = rows.Err()
	if err != nil {
		return nil, &Error{Description: "Could not scan Stats.Busiest rows", Type: ErrorTypeServer, Err: err}
	}

	//Recent
	rows, err = tx.Query("SELECT id, title, created_at, updated_at FROM thread ORDER BY updated_at DESC LIMIT 10;")
	if err != nil {
		return nil, &Error{Description: "Could not query Stats.Recent", Type: ErrorTypeServer, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		t := new(Thread)

		sErr := rows.Scan(&(t.ID), &(t.Title), &(t.CreatedAt), &(t.UpdatedAt))
		if sErr != nil {
			return nil, &Error{Description: "Could not scan Stats.Recent row", Type: ErrorTypeServer, Err: sErr}
		}

		s.Recent = append(s.Recent, t)
	}

	err = rows.Err()
	if err != nil {
		return nil, &Error{Description: "Could not scan Stats.Recent rows", Type: ErrorTypeServer, Err: err}
	}

	return s, nil
}
