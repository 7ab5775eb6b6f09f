package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/agent"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

const messagesTrue = "true"

//POST /threads/
func handleCreateThread(w http.ResponseWriter, r *http.Request) *handlerResponse {
	req := new(ThreadCreateRequest)

	d := json.NewDecoder(r.Body)
	if err := d.Decode(req); err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode json: %v", err))
	}

	thread, err := api.CreateThread(r.Context(), req.Title)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}

	return &handlerResponse{Code: http.StatusOK, Body: thread}
}

//GET /threads/?search=...&limit=...
func handleQueryThreads(w http.ResponseWriter, r *http.Request) *handlerResponse {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			return handleError(http.StatusBadRequest, fmt.Errorf("Could not parse limit: %v", err))
		}
		limit = l
	}

	threads, err := api.QueryThreads(r.Context(), r.URL.Query().Get("search"), limit)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}

	return &handlerResponse{Code: http.StatusOK, Body: &QueryThreadsResponse{Threads: threads}}
}

//GET /threads/{id}?messages=true
func handleReadThread(w http.ResponseWriter, r *http.Request) *handlerResponse {
	id := mux.Vars(r)["id"]
	includeMessages := r.URL.Query().Get("messages") == messagesTrue

	thread, err := api.ReadThread(r.Context(), id, includeMessages)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}
	if thread == nil {
		return handleError(http.StatusNotFound, fmt.Errorf("Could not find Thread(%s)", id))
	}

	return &handlerResponse{Code: http.StatusOK, Body: thread}
}

//POST /threads/{id}
func handleUpdateThread(w http.ResponseWriter, r *http.Request) *handlerResponse {
	id := mux.Vars(r)["id"]

	req := new(ThreadUpdateRequest)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(req); err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode json: %v", err))
	}
	if req.Title == "" {
		return handleError(http.StatusBadRequest, errors.New("title is empty"))
	}

	thread, err := api.ReadThread(r.Context(), id, false)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}
	if thread == nil {
		return handleError(http.StatusNotFound, fmt.Errorf("Could not find Thread(%s)", id))
	}

	thread, err = api.UpdateThreadTitle(r.Context(), id, req.Title)
	if resp := checkAPIError(err); resp != nil {
		return resp
	}

	return &handlerResponse{Code: http.StatusOK, Body: thread}
}

//DELETE /threads/{id}
func handleDeleteThread(cache *api.MessageCache) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		id := mux.Vars(r)["id"]

		found, err := api.DeleteThread(r.Context(), id)
		if resp := checkAPIError(err); resp != nil {
			return resp
		}
		if !found {
			return handleError(http.StatusNotFound, fmt.Errorf("Could not find Thread(%s)", id))
		}

		cache.Invalidate(id)
		return &handlerResponse{Code: http.StatusOK, Body: &DeletedResponse{Deleted: true}}
	}
}

//GET /threads/{id}/messages/
func handleReadMessages(cache *api.MessageCache) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		id := mux.Vars(r)["id"]

		if messages, ok := cache.Get(id); ok {
			return &handlerResponse{Code: http.StatusOK, Body: &ReadMessagesResponse{Messages: messages}}
		}

		thread, err := api.ReadThread(r.Context(), id, true)
		if resp := checkAPIError(err); resp != nil {
			return resp
		}
		if thread == nil {
			return handleError(http.StatusNotFound, fmt.Errorf("Could not find Thread(%s)", id))
		}

		cache.Put(id, thread.Messages)
		return &handlerResponse{Code: http.StatusOK, Body: &ReadMessagesResponse{Messages: thread.Messages}}
	}
}

//GET /threads/{id}/approvals/
func handlePendingApprovals(approvals *agent.ApprovalStore) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		id := mux.Vars(r)["id"]
		return &handlerResponse{Code: http.StatusOK, Body: &PendingApprovalsResponse{Approvals: approvals.Pending(id)}}
	}
}

//POST /threads/{id}/approvals/{callID}
func handleResolveApproval(approvals *agent.ApprovalStore) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		vars := mux.Vars(r)

		req := new(ApprovalRequest)
		d := json.NewDecoder(r.Body)
		if err := d.Decode(req); err != nil {
			return handleError(http.StatusBadRequest, fmt.Errorf("Could not decode json: %v", err))
		}
		if req.Approve == nil {
			return handleError(http.StatusBadRequest, errors.New("approve is required"))
		}

		if !approvals.Resolve(vars["id"], vars["callID"], *req.Approve) {
			return handleError(http.StatusNotFound, fmt.Errorf("Could not find pending call %s", vars["callID"]))
		}

		return &handlerResponse{Code: http.StatusOK, Body: struct{}{}}
	}
}
