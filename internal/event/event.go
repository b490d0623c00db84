package event

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags the mutation an event records.
type Kind string

const (
	KindRegistryCreated      Kind = "registry-created"
	KindOwnershipTransferred Kind = "ownership-transferred"
	KindManagerAdded         Kind = "manager-added"
	KindManagerRemoved       Kind = "manager-removed"
	KindMetadataUpdated      Kind = "metadata-updated"
	KindNodeAdded            Kind = "node-added"
	KindNodeStatusChanged    Kind = "node-status-changed"
	KindNodeRemoved          Kind = "node-removed"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{
	KindRegistryCreated,
	KindOwnershipTransferred,
	KindManagerAdded,
	KindManagerRemoved,
	KindMetadataUpdated,
	KindNodeAdded,
	KindNodeStatusChanged,
	KindNodeRemoved,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Event is one committed registry mutation.
//
// Seq, ID, PrevHash and Hash are assigned by the recorder that persists the
// event; the registry fills in everything else.
type Event struct {
	Seq      int64  `json:"seq"`
	ID       string `json:"id"`
	PrevHash string `json:"prev_hash,omitempty"`
	Hash     string `json:"hash,omitempty"`

	Kind  Kind      `json:"kind"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`

	// Subject is the principal affected by identity events
	// (new owner, added or removed manager).
	Subject string `json:"subject,omitempty"`

	URL      string `json:"url,omitempty"`
	Approved bool   `json:"approved,omitempty"`

	Version       string `json:"version,omitempty"`
	DownloadLink  string `json:"download_link,omitempty"`
	UpdateContent string `json:"update_content,omitempty"`
}

// TimeFormat is the wire format of Event.At.
const TimeFormat = time.RFC3339Nano

// Fields returns the kind-specific payload of the event as a plain map.
// The map always contains kind, actor and at.
func (e Event) Fields() map[string]any {
	m := map[string]any{
		"kind":  string(e.Kind),
		"actor": e.Actor,
		"at":    e.At.UTC().Format(TimeFormat),
	}
	switch e.Kind {
	case KindRegistryCreated, KindOwnershipTransferred, KindManagerAdded, KindManagerRemoved:
		m["subject"] = e.Subject
	case KindMetadataUpdated:
		m["version"] = e.Version
		m["download_link"] = e.DownloadLink
		m["update_content"] = e.UpdateContent
	case KindNodeAdded, KindNodeStatusChanged:
		m["url"] = e.URL
		m["approved"] = e.Approved
	case KindNodeRemoved:
		m["url"] = e.URL
	}
	return m
}

// Payload returns the stored form of the event's fields: JSON with sorted
// keys and strings kept byte-for-byte. Strings that are not valid UTF-8 are
// stored as {"base64":"..."} objects.
func (e Event) Payload() (string, error) {
	data, err := marshalSorted(e.Fields(), false)
	if err != nil {
		return "", fmt.Errorf("event payload: %w", err)
	}
	return string(data), nil
}

// Decode rebuilds an event from its stored columns.
func Decode(seq int64, id, prevHash, hash, payload string) (Event, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Event{}, fmt.Errorf("decode event %d: %w", seq, err)
	}

	var fieldErr error
	str := func(key string) string {
		v, err := stringField(raw, key)
		if err != nil && fieldErr == nil {
			fieldErr = err
		}
		return v
	}

	ev := Event{
		Seq:      seq,
		ID:       id,
		PrevHash: prevHash,
		Hash:     hash,
		Kind:     Kind(str("kind")),
		Actor:    str("actor"),
	}
	if !ev.Kind.Valid() {
		return Event{}, fmt.Errorf("decode event %d: unknown kind %q", seq, ev.Kind)
	}

	at, err := time.Parse(TimeFormat, str("at"))
	if err != nil {
		return Event{}, fmt.Errorf("decode event %d: at: %w", seq, err)
	}
	ev.At = at.UTC()

	ev.Subject = str("subject")
	ev.URL = str("url")
	if b, ok := raw["approved"].(bool); ok {
		ev.Approved = b
	}
	ev.Version = str("version")
	ev.DownloadLink = str("download_link")
	ev.UpdateContent = str("update_content")
	if fieldErr != nil {
		return Event{}, fmt.Errorf("decode event %d: %w", seq, fieldErr)
	}

	return ev, nil
}

// stringField reads a string written by writeString. Missing keys read as
// the empty string.
func stringField(m map[string]any, key string) (string, error) {
	switch v := m[key].(type) {
	case string:
		return v, nil
	case map[string]any:
		enc, ok := v[bytesKey].(string)
		if !ok || len(v) != 1 {
			return "", fmt.Errorf("%s: unknown string encoding", key)
		}
		b, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return "", fmt.Errorf("%s: %w", key, err)
		}
		return string(b), nil
	default:
		return "", nil
	}
}
