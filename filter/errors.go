package filter

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind classifies a compile failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnsupportedOperator
	KindIdentifier
	KindEmbedding
	KindAssembly
)

// Sentinel errors matched by errors.Is against any *Error of the same kind.
var (
	ErrValidation          = errors.New("validation error")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrIdentifier          = errors.New("identifier not allowed")
	ErrEmbedding           = errors.New("embedding failed")
	ErrAssembly            = errors.New("assembly failed")
)

var kindNames = map[Kind]string{
	KindValidation:          "ValidationError",
	KindUnsupportedOperator: "UnsupportedOperatorError",
	KindIdentifier:          "IdentifierError",
	KindEmbedding:           "EmbeddingError",
	KindAssembly:            "AssemblyError",
}

var kindSentinels = map[Kind]error{
	KindValidation:          ErrValidation,
	KindUnsupportedOperator: ErrUnsupportedOperator,
	KindIdentifier:          ErrIdentifier,
	KindEmbedding:           ErrEmbedding,
	KindAssembly:            ErrAssembly,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Error is a compile failure. Path locates the offending node in the filter
// tree using "$" for the root, e.g. "$.children[1].value.to". Path is empty
// for failures that are not tied to a node.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Path != "" {
		s += " at " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && kindSentinels[e.Kind] == target
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// PathOf returns the node path of the first *Error in err's chain.
func PathOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Path
	}
	return ""
}

// Validationf returns a ValidationError at path.
func Validationf(path, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Unsupported returns an UnsupportedOperatorError at path.
func Unsupported(path, op, detail string) *Error {
	msg := strconv.Quote(op)
	if detail != "" {
		msg += " " + detail
	}
	return &Error{Kind: KindUnsupportedOperator, Path: path, Msg: msg}
}

// Identifierf returns an IdentifierError at path.
func Identifierf(path, format string, args ...any) *Error {
	return &Error{Kind: KindIdentifier, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Embedding wraps a provider failure as an EmbeddingError at path.
func Embedding(path string, err error) *Error {
	return &Error{Kind: KindEmbedding, Path: path, Err: err}
}

// Assembly wraps an internal invariant violation as an AssemblyError.
func Assembly(msg string, err error) *Error {
	return &Error{Kind: KindAssembly, Msg: msg, Err: err}
}

// Root is the path of the top-level node.
const Root = "$"

// ChildPath returns the path of the i-th child of the group at path.
func ChildPath(path string, i int) string {
	return path + ".children[" + strconv.Itoa(i) + "]"
}

// FieldPath returns the path of a named member below path.
func FieldPath(path, name string) string {
	return path + "." + name
}

// IndexPath returns the path of the i-th list element below path.
func IndexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
