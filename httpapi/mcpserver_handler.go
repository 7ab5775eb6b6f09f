package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

//POST /mcpservers/
func handleCreateMCPServer(w http.ResponseWriter, r *http.Request) *handlerResponse {
	var server *api.MCPServer
	d := json.NewDecoder(r.Body)

	err := d.Decode(&server)
	if err != nil || server == nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode JSON: %v", err))
	}

	id, err := api.CreateMCPServer(r.Context(), server)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}

	server, err = api.ReadMCPServer(r.Context(), id)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}
	if server == nil {
		return handleError(http.StatusInternalServerError, errors.New("Could not find server, but just created"))
	}

	return &handlerResponse{Code: http.StatusOK, Body: server}
}

//GET /mcpservers/{id}
func handleReadMCPServer(w http.ResponseWriter, r *http.Request) *handlerResponse {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode id: %v", err))
	}

	server, err := api.ReadMCPServer(r.Context(), id)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}
	if server == nil {
		return handleError(http.StatusNotFound, errors.New("Could not find server"))
	}

	return &handlerResponse{Code: http.StatusOK, Body: server}
}

//POST /mcpservers/{id}
func handleUpdateMCPServer(w http.ResponseWriter, r *http.Request) *handlerResponse {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode id: %v", err))
	}

	var server *api.MCPServer
	d := json.NewDecoder(r.Body)

	err = d.Decode(&server)
	if err != nil || server == nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode JSON: %v", err))
	}

	if server.ID != id {
		return handleError(http.StatusBadRequest, fmt.Errorf("server id mismatch: URL: %d, Body: %d", id, server.ID))
	}

	server, err = api.UpdateMCPServer(r.Context(), server)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}
	if server == nil {
		return handleError(http.StatusNotFound, errors.New("Could not find server, but just updated"))
	}

	return &handlerResponse{Code: http.StatusOK, Body: server}
}

//DELETE /mcpservers/{id}
func handleDeleteMCPServer(w http.ResponseWriter, r *http.Request) *handlerResponse {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode id: %v", err))
	}

	found, err := api.DeleteMCPServer(r.Context(), id)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}
	if !found {
		return handleError(http.StatusNotFound, errors.New("Could not find server"))
	}

	return &handlerResponse{Code: http.StatusOK, Body: &DeletedResponse{Deleted: true}}
}

//GET /mcpservers/
func handleQueryMCPServers(w http.ResponseWriter, r *http.Request) *handlerResponse {
	servers, err := api.QueryMCPServers(r.Context())
	if resp := checkAPIError(err); resp != nil {
		return resp
	}

	return &handlerResponse{Code: http.StatusOK, Body: &QueryMCPServersResponse{Servers: servers}}
}

//GET /mcpservers/transports/
func handleReadTransports(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return &handlerResponse{Code: http.StatusOK, Body: &ReadTransportsResponse{Transports: api.MCPServerTransports}}
}
