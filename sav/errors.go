package sav

import (
	"fmt"
	"strconv"
)

var (
	// ErrUnexpectedEOF is returned when the input ends before the
	// structure being decoded is complete.
	ErrUnexpectedEOF error = errEOF{}

	// ErrRecursion is returned when the nesting depth limit is reached.
	// This should only realistically be seen on adversarial data trying
	// to exhaust the stack.
	ErrRecursion error = errRecursion{}
)

// Error is the interface satisfied by all of the errors that originate
// from this package.
type Error interface {
	error

	// Fatal reports whether the error means the input stream is
	// malformed and decoding cannot continue past it.
	Fatal() bool
}

// contextError allows Error instances to be enhanced with additional
// context about their origin.
type contextError interface {
	Error

	// withContext must not modify the error instance - it must clone and
	// return a new error with the context added.
	withContext(ctx string) error
}

// Cause returns the underlying cause of an error that has been wrapped
// with additional context.
func Cause(e error) error {
	out := e
	if e, ok := e.(errWrapped); ok && e.cause != nil {
		out = e.cause
	}
	return out
}

// Fatal reports whether the error means the input stream is malformed
// and decoding cannot continue past it.
func Fatal(e error) bool {
	if e, ok := e.(Error); ok {
		return e.Fatal()
	}
	return true
}

// WrapError wraps an error with additional context that allows the part
// of the document that caused the problem to be identified. Underlying
// errors can be retrieved using Cause().
//
// The input error is not modified - a new error is returned.
//
// ErrUnexpectedEOF is not wrapped so it stays comparable with ==.
func WrapError(err error, ctx ...any) error {
	switch e := err.(type) {
	case errEOF:
		return e
	case contextError:
		return e.withContext(ctxString(ctx))
	default:
		return errWrapped{cause: err, ctx: ctxString(ctx)}
	}
}

func ctxString(ctx []any) string {
	out := ""
	for i, cv := range ctx {
		if i > 0 {
			out += "/"
		}
		out += fmt.Sprintf("%v", cv)
	}
	return out
}

func addCtx(ctx, add string) string {
	if ctx != "" {
		return add + "/" + ctx
	}
	return add
}

func quoteStr(s string) string { return strconv.Quote(s) }

// errWrapped allows arbitrary errors passed to WrapError to be enhanced
// with context and unwrapped with Cause()
type errWrapped struct {
	cause error
	ctx   string
}

func (e errWrapped) Error() string {
	if e.ctx != "" {
		return e.cause.Error() + " at " + e.ctx
	}
	return e.cause.Error()
}

func (e errWrapped) Fatal() bool {
	if e, ok := e.cause.(Error); ok {
		return e.Fatal()
	}
	return true
}

// Unwrap returns the cause.
func (e errWrapped) Unwrap() error { return e.cause }

type errEOF struct{}

func (e errEOF) Error() string { return "sav: too few bytes left to read object" }
func (e errEOF) Fatal() bool   { return true }

type errRecursion struct{}

func (e errRecursion) Error() string { return "sav: recursion limit reached" }
func (e errRecursion) Fatal() bool   { return true }

// ChunkError is returned when the compressed container cannot be
// unpacked: a bad package tag, an unsupported compressor, a failed
// decompression, or a checksum or size disagreement.
type ChunkError struct {
	Offset int // byte offset of the chunk in the file, -1 if not chunk-specific
	Reason string
}

// Error implements the error interface
func (c *ChunkError) Error() string {
	if c.Offset >= 0 {
		return "sav: chunk at offset " + strconv.Itoa(c.Offset) + ": " + c.Reason
	}
	return "sav: " + c.Reason
}

// Fatal returns 'true' for ChunkErrors
func (c *ChunkError) Fatal() bool { return true }

// UnknownTypeError is returned when a property carries a type tag that
// is not in the registry. Decoding cannot skip an unknown payload:
// its length bookkeeping would be unverifiable.
type UnknownTypeError struct {
	Tag    string
	Offset int

	ctx string
}

// Error implements the error interface
func (u UnknownTypeError) Error() string {
	out := "sav: unknown property type " + quoteStr(u.Tag) + " at offset " + strconv.Itoa(u.Offset)
	if u.ctx != "" {
		out += " at " + u.ctx
	}
	return out
}

// Fatal returns 'true' for UnknownTypeErrors
func (u UnknownTypeError) Fatal() bool { return true }

func (u UnknownTypeError) withContext(ctx string) error { u.ctx = addCtx(u.ctx, ctx); return u }

// SizeMismatchError is returned when a decoded property payload does
// not occupy exactly the byte length its header declared.
type SizeMismatchError struct {
	Property string
	Declared uint32
	Actual   uint32

	ctx string
}

// Error implements the error interface
func (s SizeMismatchError) Error() string {
	out := "sav: property " + quoteStr(s.Property) + " declared " + strconv.Itoa(int(s.Declared)) +
		" payload bytes but decoding consumed " + strconv.Itoa(int(s.Actual))
	if s.ctx != "" {
		out += " at " + s.ctx
	}
	return out
}

// Fatal returns 'true' for SizeMismatchErrors
func (s SizeMismatchError) Fatal() bool { return true }

func (s SizeMismatchError) withContext(ctx string) error { s.ctx = addCtx(s.ctx, ctx); return s }

// NameError is returned when a name-table index points outside the
// decoded name table.
type NameError struct {
	Index uint16
	Count int

	ctx string
}

// Error implements the error interface
func (n NameError) Error() string {
	out := "sav: name index " + strconv.Itoa(int(n.Index)) + " out of range (table holds " +
		strconv.Itoa(n.Count) + " names)"
	if n.ctx != "" {
		out += " at " + n.ctx
	}
	return out
}

// Fatal returns 'true' for NameErrors
func (n NameError) Fatal() bool { return true }

func (n NameError) withContext(ctx string) error { n.ctx = addCtx(n.ctx, ctx); return n }

// ArchiveError is returned when the object graph layered over the
// property stream is inconsistent: bad padding, an object id outside
// the index, or a component body of the wrong length.
type ArchiveError struct {
	Offset int
	Reason string

	ctx string
}

// Error implements the error interface
func (a ArchiveError) Error() string {
	out := "sav: " + a.Reason + " at offset " + strconv.Itoa(a.Offset)
	if a.ctx != "" {
		out += " at " + a.ctx
	}
	return out
}

// Fatal returns 'true' for ArchiveErrors
func (a ArchiveError) Fatal() bool { return true }

func (a ArchiveError) withContext(ctx string) error { a.ctx = addCtx(a.ctx, ctx); return a }

// ValueError is returned by the encoder when a document value does not
// match the property tag it is filed under, e.g. an IntProperty holding
// a StrValue.
type ValueError struct {
	Property string
	Tag      string
	Got      string

	ctx string
}

// Error implements the error interface
func (v ValueError) Error() string {
	out := "sav: property " + quoteStr(v.Property) + " tagged " + v.Tag + " holds " + v.Got
	if v.ctx != "" {
		out += " at " + v.ctx
	}
	return out
}

// Fatal returns 'true' for ValueErrors
func (v ValueError) Fatal() bool { return true }

func (v ValueError) withContext(ctx string) error { v.ctx = addCtx(v.ctx, ctx); return v }

// JSONError is returned by the JSON bridge when the input text is
// missing required type annotations or carries contradictory ones.
type JSONError struct {
	Reason string

	ctx string
}

// Error implements the error interface
func (j JSONError) Error() string {
	out := "sav: json: " + j.Reason
	if j.ctx != "" {
		out += " at " + j.ctx
	}
	return out
}

// Fatal returns 'false' for JSONErrors: the input text can be corrected.
func (j JSONError) Fatal() bool { return false }

func (j JSONError) withContext(ctx string) error { j.ctx = addCtx(j.ctx, ctx); return j }

func jsonErrf(format string, args ...any) JSONError {
	return JSONError{Reason: fmt.Sprintf(format, args...)}
}
