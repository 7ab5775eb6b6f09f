package api

import "fmt"

//ErrorType are Error types
type ErrorType int

//ErrorTypes
const (
	ErrorTypeUser ErrorType = iota
	ErrorTypeServer
	ErrorTypeDuplicate
)

//Error is an error wrapper for all errors generated in the api package.
//DuplicateID is the id of the already existing resource for ErrorTypeDuplicate errors
type Error struct {
	Description string
	Type        ErrorType
	Err         error
	DuplicateID int64
}

func (e *Error) Error() string {
	switch e.Type {
	case ErrorTypeUser:
		return fmt.Sprintf("User Error: %s: %v", e.Description, e.Err)
	case ErrorTypeDuplicate:
		return fmt.Sprintf("Duplicate Error: %s: %v", e.Description, e.Err)
	}
	return fmt.Sprintf("Server Error: %s: %v", e.Description, e.Err)
}
