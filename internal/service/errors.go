// Package service implements the ledger consistency core: membership-guarded
// operations over groups, expenses, budgets and savings goals.
//
// Every operation is synchronous request/response. Errors are reported with
// the sentinel values below (plus storage.ErrNotFound and
// storage.ErrCategoryNotFound from the storage layer) and are never recovered
// internally; the calling boundary translates them into transport responses.
package service

import "errors"

// ErrAccessDenied is returned when the acting user is not a member of the
// group that owns the requested entity.
var ErrAccessDenied = errors.New("access denied")

// ErrValidation is returned for malformed or out-of-range input, such as a
// non-positive amount or an end date before the start date.
var ErrValidation = errors.New("validation failed")

// ErrAlreadySettled is returned by MarkSplitPaid for an already-paid split,
// but only when the service runs with StrictSettlement. The default policy
// treats a repeat settle as an idempotent success.
var ErrAlreadySettled = errors.New("split already settled")
