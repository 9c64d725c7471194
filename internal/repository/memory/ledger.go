package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
)

type ledgerRepository struct {
	store *Store
}

func NewLedgerRepository(store *Store) approval.LedgerRepository {
	return &ledgerRepository{store: store}
}

func (r *ledgerRepository) Append(ctx context.Context, entry approval.Entry) (approval.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if entry.Reason != nil {
		reason := *entry.Reason
		entry.Reason = &reason
	}
	r.store.entries = append(r.store.entries, entry)
	return entry, nil
}

func (r *ledgerRepository) ListByRequest(ctx context.Context, kind approval.RequestKind, requestID string) ([]approval.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []approval.Entry
	for _, e := range r.store.entries {
		if e.RequestKind == kind && e.RequestID == requestID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
