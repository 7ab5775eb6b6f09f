package httpapi

import (
	"database/sql"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tmc/langchaingo/llms"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/agent"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

//RouterConfig holds the dependencies the routes need beyond the database
type RouterConfig struct {
	Engine         Engine
	LLM            llms.Model
	Approvals      *agent.ApprovalStore
	Cache          *api.MessageCache
	Files          *api.FileStore
	MaxUploadBytes int64
}

//NewRouter returns an HTTP router for the HTTP API
func NewRouter(w io.Writer, db *sql.DB, config *RouterConfig) http.Handler {

	//construct middleware
	var m = func(h returnHandler) http.Handler {
		return logMiddleware(jsonMiddleware(txMiddleware(h, db)), w)
	}

	chat := &ChatHandler{DB: db, Engine: config.Engine, LLM: config.LLM, Cache: config.Cache}

	r := mux.NewRouter()

	r.Path("/threads/").Methods("POST").Handler(m(handleCreateThread))
	r.Path("/threads/").Methods("GET").Handler(m(handleQueryThreads))
	r.Path("/threads/{id}").Methods("GET").Handler(m(handleReadThread))
	r.Path("/threads/{id}").Methods("POST").Handler(m(handleUpdateThread))
	r.Path("/threads/{id}").Methods("DELETE").Handler(m(handleDeleteThread(config.Cache)))
	r.Path("/threads/{id}/messages/").Methods("GET").Handler(m(handleReadMessages(config.Cache)))
	r.Path("/threads/{id}/approvals/").Methods("GET").Handler(m(handlePendingApprovals(config.Approvals)))
	r.Path("/threads/{id}/approvals/{callID}").Methods("POST").Handler(m(handleResolveApproval(config.Approvals)))

	//the chat endpoints stream their responses, so they skip the JSON middleware
	r.Path("/threads/{id}/stream").Methods("POST").Handler(chat)
	r.Path("/threads/{id}/ws").Handler(chat.WebSocket())

	r.Path("/mcpservers/").Methods("POST").Handler(m(handleCreateMCPServer))
	r.Path("/mcpservers/").Methods("GET").Handler(m(handleQueryMCPServers))
	r.Path("/mcpservers/transports/").Methods("GET").Handler(m(handleReadTransports))
	r.Path("/mcpservers/{id:[0-9]+}").Methods("GET").Handler(m(handleReadMCPServer))
	r.Path("/mcpservers/{id:[0-9]+}").Methods("POST").Handler(m(handleUpdateMCPServer))
	r.Path("/mcpservers/{id:[0-9]+}").Methods("DELETE").Handler(m(handleDeleteMCPServer))

	r.Path("/uploads/").Methods("POST").Handler(m(handleCreateUpload(config.Files, config.MaxUploadBytes)))
	r.Path("/uploads/{id}").Methods("GET").Handler(handleDownloadUpload(db, config.Files))

	r.Path("/stats/").Methods("GET").Handler(m(handleReadStats))

	r.NotFoundHandler = m(notFoundHandler)

	return http.StripPrefix("/api/1.0", r)
}
