package tnr

import (
	"errors"
	"fmt"
)

// ErrMissingAccessData is returned for nodes that have no preprocessed
// access nodes or search space: the index is not prepared, or the node is
// not part of the preprocessed graph.
var ErrMissingAccessData = errors.New("missing access data")

// ErrNodeOutOfRange is returned for node indices outside the graph.
// It wraps ErrMissingAccessData.
var ErrNodeOutOfRange = fmt.Errorf("node out of range: %w", ErrMissingAccessData)
