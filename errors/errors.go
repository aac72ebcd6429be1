package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code Code
	Op   string
	Err  error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func WrapWithCode(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code: code,
		Op:   op,
		Err:  err,
	}
}

// New builds an AppError from a plain message.
func New(code Code, op, msg string) error {
	return &AppError{Code: code, Op: op, Err: stderrors.New(msg)}
}

// CodeOf returns the code of the outermost AppError in err's chain, or Unknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}

// Is reports whether any AppError in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// Message returns the innermost human readable cause without code decoration.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	for stderrors.As(err, &appErr) {
		if appErr.Err == nil {
			return appErr.Op
		}
		err = appErr.Err
	}
	return err.Error()
}
