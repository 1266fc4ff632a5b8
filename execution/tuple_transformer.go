package execution

import (
	"github.com/YuNanlong/peloton-bwtree/storage"
)

// TupleTransformer converts result tuples into the caller's own tuple
// shape. The host front end supplies one per ExecutePlan call; the engine
// never interprets the produced slots.
type TupleTransformer interface {
	Transform(tuple *storage.Tuple) (any, error)
}

// IdentityTransformer hands the engine tuples back unchanged. Useful for
// embedded callers and tests.
type IdentityTransformer struct{}

func (IdentityTransformer) Transform(tuple *storage.Tuple) (any, error) {
	return tuple, nil
}

// ValuesTransformer flattens each result tuple into its value slice.
type ValuesTransformer struct{}

func (ValuesTransformer) Transform(tuple *storage.Tuple) (any, error) {
	return tuple.Values(), nil
}
