package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleEvents() []Event {
	return []Event{
		{Kind: KindRegistryCreated, Actor: "owner", At: testAt, Subject: "owner"},
		{Kind: KindOwnershipTransferred, Actor: "owner", At: testAt, Subject: "heir"},
		{Kind: KindManagerAdded, Actor: "heir", At: testAt, Subject: "m1"},
		{Kind: KindManagerRemoved, Actor: "heir", At: testAt, Subject: "m1"},
		{Kind: KindMetadataUpdated, Actor: "heir", At: testAt, Version: "1.0.0", DownloadLink: "https://dl/1", UpdateContent: "notes"},
		{Kind: KindNodeAdded, Actor: "stranger", At: testAt, URL: "https://a", Approved: false},
		{Kind: KindNodeStatusChanged, Actor: "heir", At: testAt, URL: "https://a", Approved: true},
		{Kind: KindNodeRemoved, Actor: "heir", At: testAt.Add(time.Second), URL: "https://a"},
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("node-renamed").Valid())
	assert.False(t, Kind("").Valid())
}

func TestPayload(t *testing.T) {
	ev := Event{Kind: KindNodeAdded, Actor: "owner", At: testAt, URL: "https://a", Approved: true}
	payload, err := ev.Payload()
	require.NoError(t, err)
	assert.Equal(t,
		`{"actor":"owner","approved":true,"at":"2024-01-01T00:00:00Z","kind":"node-added","url":"https://a"}`,
		payload)
}

func TestPayload_OnlyKindFields(t *testing.T) {
	ev := Event{Kind: KindNodeRemoved, Actor: "owner", At: testAt, URL: "https://a", Subject: "ignored", Version: "ignored"}
	payload, err := ev.Payload()
	require.NoError(t, err)
	assert.Equal(t, `{"actor":"owner","at":"2024-01-01T00:00:00Z","kind":"node-removed","url":"https://a"}`, payload)
}

func TestDecodeRoundTrip(t *testing.T) {
	for i, ev := range sampleEvents() {
		t.Run(string(ev.Kind), func(t *testing.T) {
			sealed, err := Seal(ev, int64(i+1), "evt-x", "prev")
			require.NoError(t, err)

			payload, err := sealed.Payload()
			require.NoError(t, err)
			decoded, err := Decode(sealed.Seq, sealed.ID, sealed.PrevHash, sealed.Hash, payload)
			require.NoError(t, err)
			assert.Equal(t, sealed, decoded)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{`},
		{"unknown kind", `{"kind":"node-renamed","actor":"a","at":"2024-01-01T00:00:00Z"}`},
		{"bad time", `{"kind":"node-added","actor":"a","at":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(1, "id", "", "", tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestPayload_ArbitraryBytes(t *testing.T) {
	ev := Event{Kind: KindNodeAdded, Actor: "owner\x80", At: testAt, URL: "https://a/\xff", Approved: true}
	payload, err := ev.Payload()
	require.NoError(t, err)
	assert.Equal(t,
		`{"actor":{"base64":"b3duZXKA"},"approved":true,"at":"2024-01-01T00:00:00Z","kind":"node-added","url":{"base64":"aHR0cHM6Ly9hL/8="}}`,
		payload)

	decoded, err := Decode(1, "evt-1", "", "", payload)
	require.NoError(t, err)
	assert.Equal(t, ev.Actor, decoded.Actor)
	assert.Equal(t, ev.URL, decoded.URL)
}

func TestDecode_StringEncodingErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"bad base64", `{"kind":"node-removed","actor":"a","at":"2024-01-01T00:00:00Z","url":{"base64":"!!"}}`},
		{"unknown encoding", `{"kind":"node-removed","actor":"a","at":"2024-01-01T00:00:00Z","url":{"hex":"ff"}}`},
		{"extra keys", `{"kind":"node-removed","actor":"a","at":"2024-01-01T00:00:00Z","url":{"base64":"YQ==","x":"y"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(1, "id", "", "", tt.payload)
			assert.ErrorContains(t, err, "url")
		})
	}
}
