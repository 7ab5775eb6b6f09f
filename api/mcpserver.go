package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

//MCPServerTransports are the supported MCP server transports
var MCPServerTransports = []string{"stdio", "sse", "http"}

//MCPServer represents a configured MCP tool server
type MCPServer struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Transport string            `json:"transport"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	URL       string            `json:"url,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	Enabled   bool              `json:"enabled"`
}

//Validate cleans and validates the given MCPServer
func (m *MCPServer) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Command = strings.TrimSpace(m.Command)
	m.URL = strings.TrimSpace(m.URL)

	if err := ValidateString("name", m.Name, 255); err != nil {
		return err
	}
	if err := ValidateEnum("transport", m.Transport, MCPServerTransports); err != nil {
		return err
	}

	if m.Transport == "stdio" {
		if err := ValidateString("command", m.Command, 255); err != nil {
			return err
		}
		return nil
	}

	if err := ValidateString("url", m.URL, 255); err != nil {
		return err
	}
	u, err := url.Parse(m.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url (%s) must be absolute", m.URL)
	}
	return nil
}

func (m *MCPServer) marshalConfig() (args, env []byte, err error) {
	if len(m.Args) > 0 {
		if args, err = json.Marshal(m.Args); err != nil {
			return nil, nil, err
		}
	}
	if len(m.Env) > 0 {
		if env, err = json.Marshal(m.Env); err != nil {
			return nil, nil, err
		}
	}
	return args, env, nil
}

func (m *MCPServer) unmarshalConfig(args, env []byte) error {
	if len(args) > 0 {
		if err := json.Unmarshal(args, &(m.Args)); err != nil {
			return err
		}
	}
	if len(env) > 0 {
		if err := json.Unmarshal(env, &(m.Env)); err != nil {
			return err
		}
	}
	return nil
}

//CreateMCPServer creates a new MCPServer and returns its id.
//Names must be unique; a clash returns an ErrorTypeDuplicate Error with DuplicateID set
func CreateMCPServer(ctx context.Context, server *MCPServer) (int64, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	if err := server.Validate(); err != nil {
		return 0, &Error{Description: "Could not validate MCPServer", Type: ErrorTypeUser, Err: err}
	}

	args, env, err := server.marshalConfig()
	if err != nil {
		return 0, &Error{Description: "Could not marshal MCPServer config", Type: ErrorTypeServer, Err: err}
	}

	res, err := tx.Exec("INSERT INTO mcpserver(name, transport, command, args, url, env, enabled) VALUES(?, ?, ?, ?, ?, ?, ?);",
		server.Name, server.Transport, server.Command, args, server.URL, env, server.Enabled)
	if e, ok := err.(*mysql.MySQLError); ok && e.Number == 1062 {
		dup, err := ReadMCPServerByName(ctx, server.Name)
		if err != nil {
			return 0, err
		}
		if dup == nil {
			return 0, &Error{Description: "Could not read duplicate MCPServer", Type: ErrorTypeServer, Err: e}
		}
		return 0, &Error{Description: "Could not insert MCPServer", Type: ErrorTypeDuplicate, Err: e, DuplicateID: dup.ID}
	}
	if err != nil {
		return 0, &Error{Description: "Could not insert MCPServer", Type: ErrorTypeServer, Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &Error{Description: "Could not read id for new MCPServer", Type: ErrorTypeServer, Err: err}
	}

	server.ID = id
	return id, nil
}

//ReadMCPServer returns the MCPServer with the given id, or nil if it doesn't exist
func ReadMCPServer(ctx context.Context, id int64) (*MCPServer, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	server := &MCPServer{ID: id}
	var args, env []byte

	row := tx.QueryRow("SELECT name, transport, command, args, url, env, enabled FROM mcpserver WHERE id=?;", id)
	err := row.Scan(&(server.Name), &(server.Transport), &(server.Command), &args, &(server.URL), &env, &(server.Enabled))
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, &Error{Description: fmt.Sprintf("Could not query MCPServer(%d)", id), Type: ErrorTypeServer, Err: err}
	}

	if err := server.unmarshalConfig(args, env); err != nil {
		return nil, &Error{Description: fmt.Sprintf("Could not unmarshal config for MCPServer(%d)", id), Type: ErrorTypeServer, Err: err}
	}

	return server, nil
}

//ReadMCPServerByName returns the MCPServer with the given name, or nil if it doesn't exist
func ReadMCPServerByName(ctx context.Context, name string) (*MCPServer, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	server := &MCPServer{Name: name}
	var args, env []byte

	row := tx.QueryRow("SELECT id, transport, command, args, url, env, enabled FROM mcpserver WHERE name=?;", name)
	err := row.Scan(&(server.ID), &(server.Transport), &(server.Command), &args, &(server.URL), &env, &(server.Enabled))
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, &Error{Description: fmt.Sprintf("Could not query MCPServer(%s)", name), Type: ErrorTypeServer, Err: err}
	}

	if err := server.unmarshalConfig(args, env); err != nil {
		return nil, &Error{Description: fmt.Sprintf("Could not unmarshal config for MCPServer(%s)", name), Type: ErrorTypeServer, Err: err}
	}

	return server, nil
}

//UpdateMCPServer updates the MCPServer with the given id.
//A name clash with another server returns an ErrorTypeDuplicate Error with DuplicateID set
func UpdateMCPServer(ctx context.Context, server *MCPServer) (*MCPServer, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	if err := server.Validate(); err != nil {
		return nil, &Error{Description: "Could not validate MCPServer", Type: ErrorTypeUser, Err: err}
	}

	args, env, err := server.marshalConfig()
	if err != nil {
		return nil, &Error{Description: "Could not marshal MCPServer config", Type: ErrorTypeServer, Err: err}
	}

	_, err = tx.Exec("UPDATE mcpserver SET name=?, transport=?, command=?, args=?, url=?, env=?, enabled=? WHERE id=?;",
		server.Name, server.Transport, server.Command, args, server.URL, env, server.Enabled, server.ID)
	if e, ok := err.(*mysql.MySQLError); ok && e.Number == 1062 {
		dup, err := ReadMCPServerByName(ctx, server.Name)
		if err != nil {
			return nil, err
		}
		if dup == nil {
			return nil, &Error{Description: "Could not read duplicate MCPServer", Type: ErrorTypeServer, Err: e}
		}
		return nil, &Error{Description: "Could not update MCPServer", Type: ErrorTypeDuplicate, Err: e, DuplicateID: dup.ID}
	}
	if err != nil {
		return nil, &Error{Description: fmt.Sprintf("Could not update MCPServer(%d)", server.ID), Type: ErrorTypeServer, Err: err}
	}

	return ReadMCPServer(ctx, server.ID)
}

//DeleteMCPServer removes the MCPServer with the given id, returning whether it existed
func DeleteMCPServer(ctx context.Context, id int64) (bool, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	res, err := tx.Exec("DELETE FROM mcpserver WHERE id=?;", id)
	if err != nil {
		return false, &Error{Description: fmt.Sprintf("Could not delete MCPServer(%d)", id), Type: ErrorTypeServer, Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &Error{Description: fmt.Sprintf("Could not read rows affected for MCPServer(%d)", id), Type: ErrorTypeServer, Err: err}
	}

	return n > 0, nil
}

//QueryMCPServers returns all MCPServers ordered by name
func QueryMCPServers(ctx context.Context) ([]*MCPServer, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	rows, err := tx.Query("SELECT id, name, transport, command, args, url, env, enabled FROM mcpserver ORDER BY name;")
	if err != nil {
		return nil, &Error{Description: "Could not query MCPServers", Type: ErrorTypeServer, Err: err}
	}
	defer rows.Close()

	var servers []*MCPServer
	for rows.Next() {
		server := new(MCPServer)
		var args, env []byte

		if err := rows.Scan(&(server.ID), &(server.Name), &(server.Transport), &(server.Command), &args, &(server.URL), &env, &(server.Enabled)); err != nil {
			return nil, &Error{Description: "Could not scan MCPServer row", Type: ErrorTypeServer, Err: err}
		}
		if err := server.unmarshalConfig(args, env); err != nil {
			return nil, &Error{Description: fmt.Sprintf("Could not unmarshal config for MCPServer(%d)", server.ID), Type: ErrorTypeServer, Err: err}
		}

		servers = append(servers, server)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Description: "Could not read MCPServer rows", Type: ErrorTypeServer, Err: err}
	}

	return servers, nil
}
