package httpapi

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

//POST /uploads/
func handleCreateUpload(files *api.FileStore, maxBytes int64) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}

		f, header, err := r.FormFile("file")
		if err != nil {
			return handleError(http.StatusBadRequest, fmt.Errorf("Could not read multipart file: %v", err))
		}
		defer f.Close()

		digest, size, err := files.Save(f)
		if err != nil {
			return handleError(http.StatusInternalServerError, err)
		}

		upload := &api.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        size,
			Digest:      digest,
		}

		upload, err = api.CreateUpload(r.Context(), upload)
		if resp := checkAPIError(err); resp != nil {
			return resp
		}

		return &handlerResponse{Code: http.StatusOK, Body: upload}
	}
}

//GET /uploads/{id}
//The response streams the stored bytes, so this handler skips jsonMiddleware
//and manages its own read transaction
func handleDownloadUpload(db *sql.DB, files *api.FileStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		tx, err := db.BeginTx(r.Context(), &sql.TxOptions{ReadOnly: true})
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("Could not begin transaction: %v", err))
			return
		}
		defer tx.Rollback()

		upload, err := api.ReadUpload(context.WithValue(r.Context(), api.TransactionKey, tx), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if upload == nil {
			writeError(w, http.StatusNotFound, nil)
			return
		}

		f, err := files.Open(upload.Digest)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("Could not open Upload(%s): %v", id, err))
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", upload.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", upload.Name))
		http.ServeContent(w, r, upload.Name, upload.CreatedAt, f)
	})
}
