// Package registry implements the permissioned node registry.
//
// A Registry holds three pieces of state behind one lock:
//
//   - identity: the single Owner and the explicit manager set. The owner is
//     always an implicit manager (see IsManager) and can never be stripped of
//     that status through RemoveManager.
//   - app metadata: the current release triple, overwritten as a whole.
//   - node directory: an existence index over node urls plus two unordered
//     lists, approved and pending. A url lives in exactly one list while it
//     exists and in neither after removal.
//
// # Admission
//
// AddNode is open to any caller. Submissions from managers are approved on
// arrival; everyone else lands in the pending list until a manager approves
// the url. Single-item operations are strict and fail with a typed *Error.
// Batch operations (ApproveNodes, RemoveNodes) check authorization once and
// then silently skip items that are unknown or already in the target state.
//
// # Ordering
//
// Lists use swap-delete: the removed slot is filled with the last element.
// Readers must not assume insertion order survives a removal.
//
// # Notification
//
// Every committed mutation is described by one event.Event and handed to the
// configured Notifier while the registry lock is still held, so notifications
// arrive in commit order. A notifier error is logged and never undoes the
// mutation.
package registry
