// Package rgerr defines the engine's named error kinds (§7). Each kind is a
// struct error; the kinds that wrap an underlying cause implement Unwrap,
// following the teacher's ConflictError idiom
// in pkg/apply/applier.go, so callers can use errors.As to branch on kind
// and errors.Is/errors.Unwrap to reach the underlying cause.
package rgerr
