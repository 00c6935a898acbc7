// Package services holds the cross-cutting error taxonomy and the context
// annotations shared by the pipeline components.
//
// Errors are classified by wrapping one of the exported sentinels; HTTPStatus
// maps the classification to the response code the API layer should emit.
package services
