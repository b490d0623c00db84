// Package harness runs YAML scenarios against a real engine and compares
// the resulting event trace with golden files.
//
// # Scenario Format
//
//	name: admission_flow
//	description: "Managers approve pending submissions"
//	owner: owner
//	steps:
//	  - as: stranger
//	    op: add_node
//	    args: { url: "https://a" }
//	    expect_approved: false
//	  - as: stranger
//	    op: approve_node
//	    args: { url: "https://a" }
//	    expect_error: PERMISSION_DENIED
//	  - as: owner
//	    op: approve_nodes
//	    args: { urls: ["https://a", "https://x"] }
//	    expect_applied: ["https://a"]
//	assertions:
//	  - type: approved
//	    urls: ["https://a"]
//	  - type: event_kinds
//	    kinds: [registry-created, node-added, node-status-changed]
//
// # Operations
//
// transfer_ownership, add_manager and remove_manager take principal;
// update_app_info takes version, download_link and update_content;
// add_node, approve_node and remove_node take url; approve_nodes and
// remove_nodes take urls.
//
// # Assertion Types
//
//   - approved, pending: exact list contents in list order (urls)
//   - approved_count, pending_count: list length (count)
//   - is_manager, not_manager: manager capability of principal
//   - owner: current owner (principal)
//   - app_info: release triple (app)
//   - node_info: record of url (approved, added_by)
//   - missing: url is not tracked
//   - event_kinds: kinds of every logged event, in order
//
// # Deterministic Testing
//
// Each scenario runs on a fresh in-memory store with event ids evt-1,
// evt-2, ... and a wall clock that starts at 2024-01-01T00:00:00Z and
// advances one second per committed event. Identical scenarios therefore
// produce byte-identical traces, hashes included.
package harness
