package contracts

import "context"

// TransactionFunc runs inside a repository transaction. Every store call made
// with ctx joins it.
type TransactionFunc func(ctx context.Context) error
