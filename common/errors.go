package common

import "fmt"

type ErrorCode int

const (
	// BadColumnError indicates an expression referenced a column index that
	// does not exist in the tuple it was evaluated against.
	BadColumnError ErrorCode = iota
	// TypeMismatchError indicates a comparison between values that share no
	// common comparable type.
	TypeMismatchError
	// UnsupportedExpressionError indicates the bridge encountered a host
	// expression node or operator identifier it cannot translate.
	UnsupportedExpressionError
	// IndexCorruptionError indicates a BW-tree structural invariant was
	// violated during traversal. This is fatal for the affected index.
	IndexCorruptionError
	// ConstraintViolationError indicates a unique index rejected an insert.
	ConstraintViolationError
	// TransactionConflictError indicates a write-write conflict or a commit
	// rejected by the transaction manager.
	TransactionConflictError
	// ResourceExhaustionError indicates the engine ran out of a bounded
	// resource, e.g. mapping-table page ids.
	ResourceExhaustionError
	// NoSuchObjectError indicates a request for a table or index that does
	// not exist in the catalog.
	NoSuchObjectError
	// DuplicateObjectError indicates an attempt to create a table or index
	// that already exists in the catalog.
	DuplicateObjectError
)

func (ec ErrorCode) String() string {
	switch ec {
	case BadColumnError:
		return "BadColumnError"
	case TypeMismatchError:
		return "TypeMismatchError"
	case UnsupportedExpressionError:
		return "UnsupportedExpressionError"
	case IndexCorruptionError:
		return "IndexCorruptionError"
	case ConstraintViolationError:
		return "ConstraintViolationError"
	case TransactionConflictError:
		return "TransactionConflictError"
	case ResourceExhaustionError:
		return "ResourceExhaustionError"
	case NoSuchObjectError:
		return "NoSuchObjectError"
	case DuplicateObjectError:
		return "DuplicateObjectError"
	}
	return "unknown"
}

// EngineError is the error type used throughout the engine. It wraps an
// ErrorCode with a detailed message so callers (the executor driver, mostly)
// can decide whether a failure aborts the transaction or is fatal.
type EngineError struct {
	Code      ErrorCode
	ErrString string
}

func (e EngineError) Error() string {
	return fmt.Sprintf("err: %s; msg: %s", e.Code.String(), e.ErrString)
}

// NewError builds an EngineError with a formatted message.
func NewError(code ErrorCode, format string, args ...any) EngineError {
	return EngineError{Code: code, ErrString: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from an error, or -1 if it is not an
// EngineError.
func CodeOf(err error) ErrorCode {
	if ee, ok := err.(EngineError); ok {
		return ee.Code
	}
	return -1
}
