// Package apperr classifies failures so the HTTP layer can pick a status and a
// public message without ever echoing internal detail.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the user-visible failure category.
type Kind int

const (
	KindUnclassified Kind = iota
	KindValidation
	KindRateLimited
	KindUpstream
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	case KindConfiguration:
		return "configuration"
	default:
		return "unclassified"
	}
}

// Code identifies the component-level failure.
type Code string

const (
	CodeEmbedding      Code = "EMBEDDING_FAILED"
	CodeStoreQuery     Code = "STORE_QUERY_FAILED"
	CodeStoreWrite     Code = "STORE_WRITE_FAILED"
	CodeGeneration     Code = "GENERATION_FAILED"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeInvalidMessage Code = "INVALID_MESSAGE"
	CodeConfigMissing  Code = "CONFIG_MISSING"
	CodeUnknown        Code = "UNKNOWN"
)

// Error carries a Kind and Code around an underlying cause.
type Error struct {
	Kind Kind
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error.
func New(kind Kind, code Code, op string, err error) *Error {
	return &Error{Kind: kind, Code: code, Op: op, Err: err}
}

// Embedding wraps an embedding provider or dimension failure.
func Embedding(op string, err error) error {
	return New(KindUpstream, CodeEmbedding, op, err)
}

// StoreQuery wraps a vector search failure.
func StoreQuery(op string, err error) error {
	return New(KindUpstream, CodeStoreQuery, op, err)
}

// StoreWrite wraps a vector store insert/delete failure.
func StoreWrite(op string, err error) error {
	return New(KindUpstream, CodeStoreWrite, op, err)
}

// Generation wraps an LLM failure.
func Generation(op string, err error) error {
	return New(KindUpstream, CodeGeneration, op, err)
}

// Config reports a missing credential or setting.
func Config(op string, err error) error {
	return New(KindConfiguration, CodeConfigMissing, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}

// CodeOf returns the Code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
