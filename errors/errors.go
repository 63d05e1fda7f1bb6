package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the bridge lifecycle the error occurred
type Phase string

const (
	PhaseLoad        Phase = "load"        // reading module bytes
	PhaseParse       Phase = "parse"       // WIT signature parsing
	PhaseConfig      Phase = "config"      // runtime configuration
	PhaseCompile     Phase = "compile"     // engine compilation and validation
	PhaseLink        Phase = "link"        // resolving imports against a host table
	PhaseInstantiate Phase = "instantiate" // creating an instance in a store
	PhaseCall        Phase = "call"        // host to guest dispatch
	PhaseHost        Phase = "host"        // host function registration
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidModule     Kind = "invalid_module"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidConfig     Kind = "invalid_config"
	KindUnsupported       Kind = "unsupported"
	KindMissingImport     Kind = "missing_import"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindRegistration      Kind = "registration"
	KindInstantiation     Kind = "instantiation"
	KindNotFound          Kind = "not_found"
	KindArity             Kind = "arity"
	KindReentrancy        Kind = "reentrancy"
	KindStoreDiscarded    Kind = "store_discarded"
	KindClosed            Kind = "closed"
)

// Sentinels for errors.Is checks. Matching compares Phase and Kind only.
var (
	ErrReentrancy     = &Error{Phase: PhaseCall, Kind: KindReentrancy}
	ErrStoreDiscarded = &Error{Phase: PhaseCall, Kind: KindStoreDiscarded}
	ErrClosed         = &Error{Phase: PhaseCall, Kind: KindClosed}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Function string
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Function != "" {
		b.WriteString(" in ")
		b.WriteString(e.Function)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Function sets the function the error refers to.
// With a namespace the name is rendered as "namespace#name".
func (b *Builder) Function(namespace, name string) *Builder {
	if namespace != "" {
		b.err.Function = namespace + "#" + name
	} else {
		b.err.Function = name
	}
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Compile creates an error for a module the engine refused to compile
func Compile(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidModule,
		Detail: "compile module",
		Cause:  cause,
	}
}

// SignatureMismatch creates a link error for an import whose host signature differs
func SignatureMismatch(namespace, name, want, got string) *Error {
	return New(PhaseLink, KindSignatureMismatch).
		Function(namespace, name).
		Detail("guest expects %s, host provides %s", want, got).
		Build()
}

// Instantiation creates an instantiation error
func Instantiation(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindInstantiation,
		Detail: detail,
		Cause:  cause,
	}
}

// Reentrancy creates the error returned when a store is entered while a call is active
func Reentrancy(name string) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindReentrancy,
		Function: name,
		Detail:   "store already has a call in flight",
	}
}

// StoreDiscarded creates the error returned for stores that saw a fatal host failure
func StoreDiscarded(name string) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindStoreDiscarded,
		Function: name,
		Detail:   "store was discarded after a fatal host failure",
	}
}

// Closed creates the error returned for calls on a closed instance
func Closed(name string) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindClosed,
		Function: name,
		Detail:   "instance is closed",
	}
}

// Arity creates an argument count mismatch error
func Arity(name string, want, got int) *Error {
	return &Error{
		Phase:    PhaseCall,
		Kind:     KindArity,
		Function: name,
		Detail:   fmt.Sprintf("expected %d argument(s), got %d", want, got),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidConfig creates a configuration validation error
func InvalidConfig(cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidConfig,
		Detail: "validate runtime config",
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Registration creates a registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:    PhaseHost,
		Kind:     KindRegistration,
		Function: namespace + "#" + name,
		Cause:    cause,
	}
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	Namespace string // e.g., "host"
	Function  string // e.g., "return_err"
}

// MissingImportsError is returned when linking fails due to missing host functions
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "namespace#function" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		ns, fn := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Namespace: ns,
			Function:  fn,
		})
	}
	return result
}

func parseImportKey(key string) (namespace, function string) {
	ns, fn, found := strings.Cut(key, "#")
	if found {
		return ns, fn
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[link] missing_import: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[link] missing %d host function(s):\n", len(e.Imports))

	byNS := make(map[string][]string)
	var nsOrder []string
	for _, imp := range e.Imports {
		if _, exists := byNS[imp.Namespace]; !exists {
			nsOrder = append(nsOrder, imp.Namespace)
		}
		byNS[imp.Namespace] = append(byNS[imp.Namespace], imp.Function)
	}

	for _, ns := range nsOrder {
		b.WriteString("\n  ")
		b.WriteString(ns)
		b.WriteString(":\n")
		for _, fn := range byNS[ns] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target is a missing-import error or the generic link sentinel.
func (e *MissingImportsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingImportsError:
		return true
	case *Error:
		return t.Phase == PhaseLink && t.Kind == KindMissingImport
	}
	return false
}
