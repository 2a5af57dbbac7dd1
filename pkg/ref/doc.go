// Package ref provides the typed placeholder primitives the rest of the
// engine is built on: References to fields of other resources (or of the
// graph's own schema), and Expressions composed from them in the cluster
// controller's expression dialect.
package ref
