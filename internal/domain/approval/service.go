package approval

import "context"

// Engine is the only writer of request status and approvers
type Engine interface {
	RecordAction(ctx context.Context, req RecordActionRequest) (ActionResult, error)
	ApprovalFlow(ctx context.Context, kind RequestKind, requestID string) ([]Entry, error)
	ListForRole(ctx context.Context, kind RequestKind, callerID string) (RoleListing, error)
	// Authorize returns ErrForbidden unless callerID may read the request
	// and its ledger.
	Authorize(ctx context.Context, kind RequestKind, requestID, callerID string) error
	// AnnounceSubmission starts the first-step fan-out for a freshly
	// created request.
	AnnounceSubmission(ctx context.Context, req Request)
}
