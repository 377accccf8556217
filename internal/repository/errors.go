package repository

import "errors"

// ErrStaleStage is returned by guarded stage updates when the row no longer
// holds the expected source state, meaning a concurrent transition committed
// first. Services map it to a conflict error.
var ErrStaleStage = errors.New("stage changed concurrently")

// ErrDuplicateEvaluation is returned when an insert hits the one evaluation
// per evaluator per bid constraint. Services map it to a conflict error.
var ErrDuplicateEvaluation = errors.New("evaluator already scored this bid")
