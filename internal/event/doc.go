// Package event defines the registry's event log records.
//
// Every committed registry mutation produces exactly one Event. Events are
// the unit of notification, persistence and replay: the store appends them,
// the engine replays them to rebuild registry state, and subscribers observe
// them in commit order.
//
// # Identity and integrity
//
// Each event carries a logical sequence number (Seq), a UUIDv7 identifier
// (ID) and a hash that chains it to its predecessor:
//
//	Hash = SHA256("noderegistry/event/v1" || 0x00 || sorted(header + payload))
//
// The hashed form sorts object keys by UTF-16 code units and disables HTML
// escaping. Registry strings are arbitrary bytes: they are hashed as given,
// and values that are not valid UTF-8 travel as {"base64":"..."} objects.
//
// MarshalCanonical additionally NFC-normalizes strings; it renders traces
// that compare equal across platforms.
package event
