// Package memory keeps every table in process memory. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/timesheet"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]directory.User
	leaves        map[string]leave.LeaveRequest
	timesheets    map[string]timesheet.Timesheet
	entries       []approval.Entry
	notifications []*notification.Notification
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]directory.User),
		leaves:     make(map[string]leave.LeaveRequest),
		timesheets: make(map[string]timesheet.Timesheet),
	}
}

// PutUser inserts or replaces a directory record
func (s *Store) PutUser(u directory.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func copyApprovers(in []approval.ApproverSnapshot) []approval.ApproverSnapshot {
	if in == nil {
		return nil
	}
	out := make([]approval.ApproverSnapshot, len(in))
	copy(out, in)
	return out
}

// TxManager runs fn directly. Callers serialize per request themselves, so
// the memory store only needs its own mutex for consistency.
type TxManager struct{}

func NewTxManager() *TxManager { return &TxManager{} }

func (TxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
