package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidMimeType   = errors.New("invalid mime type")
	ErrInvalidExtension  = errors.New("invalid extension")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrPathTraversal     = errors.New("path traversal")
	ErrNotFound          = errors.New("not found")
	ErrVariantGeneration = errors.New("variant generation failed")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a pipeline error to the response code the API layer should
// emit. Unclassified errors are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidMimeType),
		errors.Is(err, ErrInvalidExtension),
		errors.Is(err, ErrPathTraversal),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsInputRejection reports whether an error belongs to the input-rejection
// class: reported synchronously before any write and never retried.
func IsInputRejection(err error) bool {
	return errors.Is(err, ErrInvalidMimeType) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrPathTraversal) ||
		errors.Is(err, ErrValidation)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
