package approval

import "context"

type RequestRepository interface {
	GetByID(ctx context.Context, kind RequestKind, id string) (Request, error)
	// GetForUpdate loads the request and holds its row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, kind RequestKind, id string) (Request, error)
	UpdateState(ctx context.Context, kind RequestKind, id string, status string, approvers []ApproverSnapshot) error
	ListScoped(ctx context.Context, kind RequestKind, scope Scope) ([]Request, error)
	// InScope reports whether the request matches scope. A missing request
	// is ErrRequestNotFound.
	InScope(ctx context.Context, kind RequestKind, id string, scope Scope) (bool, error)
}

type LedgerRepository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	// ListByRequest returns entries ordered by creation time ascending.
	ListByRequest(ctx context.Context, kind RequestKind, requestID string) ([]Entry, error)
}

// TxManager runs fn inside a single database transaction carried by txCtx
type TxManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
