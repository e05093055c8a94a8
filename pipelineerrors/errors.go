// Package pipelineerrors provides the closed error taxonomy used across the
// mind-map pipeline, mapped to HTTP status codes only at the transport
// boundary. It consolidates what would otherwise be several ad-hoc error
// types into the single builder-style error the rest of the codebase uses.
package pipelineerrors

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error categories the pipeline can produce.
type Kind string

const (
	KindNoConceptsExtracted       Kind = "NoConceptsExtracted"
	KindEmbeddingDimensionMismatch Kind = "EmbeddingDimensionMismatch"
	KindUrlFetch                  Kind = "UrlFetch"
	KindContentExtraction         Kind = "ContentExtraction"
	KindInvalidRequest            Kind = "InvalidRequest"
	KindModelService              Kind = "ModelService"
	KindStorage                   Kind = "Storage"
	KindCancelled                 Kind = "Cancelled"
)

// httpStatus maps each Kind to the HTTP status code it surfaces as.
var httpStatus = map[Kind]int{
	KindNoConceptsExtracted:        422,
	KindEmbeddingDimensionMismatch: 422,
	KindUrlFetch:                   422,
	KindContentExtraction:          422,
	KindInvalidRequest:             400,
	KindModelService:               500,
	KindStorage:                    500,
	KindCancelled:                  499,
}

// PipelineError is the single error type returned by every pipeline stage.
type PipelineError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code this error maps to at the HTTP boundary.
func (e *PipelineError) HTTPStatus() int {
	if status, ok := httpStatus[e.Kind]; ok {
		return status
	}
	return 500
}

// Builder provides a fluent interface for constructing a PipelineError.
type Builder struct {
	err *PipelineError
}

// New starts building an error of the given kind.
func New(kind Kind, message string) *Builder {
	return &Builder{err: &PipelineError{Kind: kind, Message: message}}
}

// WithCause attaches the underlying error, if any.
func (b *Builder) WithCause(cause error) *Builder {
	b.err.Cause = cause
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *PipelineError {
	return b.err
}

// Convenience constructors for each taxonomy member.

func NoConceptsExtracted(message string) *PipelineError {
	return New(KindNoConceptsExtracted, message).Build()
}

func EmbeddingDimensionMismatch(message string) *PipelineError {
	return New(KindEmbeddingDimensionMismatch, message).Build()
}

func UrlFetch(message string, cause error) *PipelineError {
	return New(KindUrlFetch, message).WithCause(cause).Build()
}

func ContentExtraction(message string) *PipelineError {
	return New(KindContentExtraction, message).Build()
}

func InvalidRequest(message string) *PipelineError {
	return New(KindInvalidRequest, message).Build()
}

func ModelService(message string, cause error) *PipelineError {
	return New(KindModelService, message).WithCause(cause).Build()
}

func Storage(message string, cause error) *PipelineError {
	return New(KindStorage, message).WithCause(cause).Build()
}

func Cancelled(message string) *PipelineError {
	return New(KindCancelled, message).Build()
}

// Is reports whether err is a *PipelineError of the given kind.
func Is(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// As extracts the *PipelineError from err, if any.
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	ok := errors.As(err, &pe)
	return pe, ok
}
