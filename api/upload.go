package api

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

//Upload represents stored file metadata. The bytes live in a FileStore,
//addressed by Digest
type Upload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Digest      string    `json:"digest"`
	CreatedAt   time.Time `json:"created_at"`
}

//Validate cleans and validates the given Upload
func (u *Upload) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		u.Name = "unnamed"
	}
	if err := ValidateString("name", u.Name, 255); err != nil {
		return err
	}
	if u.ContentType == "" {
		u.ContentType = "application/octet-stream"
	}
	return ValidateString("content_type", u.ContentType, 255)
}

//FileStore reads and writes upload content on disk, addressed by the
//BLAKE2b-256 digest of the content. Identical uploads share one file
type FileStore struct {
	dir string
}

//NewFileStore creates the storage directory if needed and returns a FileStore
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create upload directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

//Save streams r to disk while hashing it, and returns the content digest and size
func (s *FileStore) Save(r io.Reader) (digest string, size int64, err error) {
	h, _ := blake2b.New256(nil)

	tmp, err := os.CreateTemp(s.dir, "incoming-*")
	if err != nil {
		return "", 0, fmt.Errorf("could not create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err = io.Copy(io.MultiWriter(tmp, h), r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("could not write upload: %w", err)
	}

	digest = hex.EncodeToString(h.Sum(nil))
	path := filepath.Join(s.dir, digest)

	if _, err := os.Stat(path); err == nil {
		return digest, size, nil
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", 0, fmt.Errorf("could not store upload: %w", err)
	}

	return digest, size, nil
}

//Open returns the content with the given digest
func (s *FileStore) Open(digest string) (*os.File, error) {
	//digests are hex only; reject anything that could escape the directory
	if raw, err := hex.DecodeString(digest); err != nil || len(raw) != blake2b.Size256 {
		return nil, fmt.Errorf("invalid digest (%s)", digest)
	}
	return os.Open(filepath.Join(s.dir, digest))
}

//CreateUpload stores the given Upload's metadata and returns it
func CreateUpload(ctx context.Context, upload *Upload) (*Upload, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	if err := upload.Validate(); err != nil {
		return nil, &Error{Description: "Could not validate Upload", Type: ErrorTypeUser, Err: err}
	}

	upload.ID = uuid.NewString()
	upload.CreatedAt = time.Now()

	_, err := tx.Exec("INSERT INTO upload(id, name, content_type, size, digest, created_at) VALUES(?, ?, ?, ?, ?, ?);",
		upload.ID, upload.Name, upload.ContentType, upload.Size, upload.Digest, upload.CreatedAt)
	if err != nil {
		return nil, &Error{Description: "Could not insert Upload", Type: ErrorTypeServer, Err: err}
	}

	return upload, nil
}

//ReadUpload returns the Upload with the given id, or nil if it doesn't exist
func ReadUpload(ctx context.Context, id string) (*Upload, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	upload := &Upload{ID: id}
	row := tx.QueryRow("SELECT name, content_type, size, digest, created_at FROM upload WHERE id=?;", id)

	err := row.Scan(&(upload.Name), &(upload.ContentType), &(upload.Size), &(upload.Digest), &(upload.CreatedAt))
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, &Error{Description: fmt.Sprintf("Could not query Upload(%s)", id), Type: ErrorTypeServer, Err: err}
	}

	return upload, nil
}
