// Package variants derives the fixed set of resized, re-encoded display
// images (thumbnail/medium/large) used by gallery-style callers.
//
// A variant set is generated together or not at all: the first failure aborts
// the call and best-effort removes the partial subfolder, so no observable
// state ever holds only one or two members. This is deliberately stricter
// than the single companion thumbnail in the raw store, which tolerates
// failure.
package variants
