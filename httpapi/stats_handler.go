package httpapi

import (
	"net/http"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

//GET /stats/
func handleReadStats(w http.ResponseWriter, r *http.Request) *handlerResponse {
	stats, err := api.ReadStats(r.Context())
	if resp := checkAPIError(err); resp != nil {
		return resp
	}

	return &handlerResponse{Code: http.StatusOK, Body: stats}
}
