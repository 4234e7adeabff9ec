package errors

import "fmt"

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrPostNotFound    = fmt.Errorf("post not found")
	ErrCommentNotFound = fmt.Errorf("comment not found")
	ErrInvalidToken    = fmt.Errorf("invalid token")
)
