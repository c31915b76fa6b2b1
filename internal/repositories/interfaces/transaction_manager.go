package interfaces

import "context"

// TransactionManager runs fn inside a multi-document transaction. fn must
// pass the ctx it receives to every repository call. A non-nil return aborts
// the transaction and is returned unchanged; fn may run more than once on
// transient conflicts.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
