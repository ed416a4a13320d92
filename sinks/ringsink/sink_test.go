package ringsink

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/dbprobe-go/probe"
)

func TestSink_CapturesInOrder(t *testing.T) {
	sink := New(8)
	connID := uuid.New()

	sink.Fire(probe.EventConnectionEstablishStart, probe.Fields{
		ID: 1, ConnID: connID, URL: "postgres://localhost/db",
	})
	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 2, ConnID: connID, Query: "SELECT 1"})
	sink.Fire(probe.EventQueryDone, probe.Fields{ID: 2, ConnID: connID})

	entries := sink.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, probe.EventConnectionEstablishStart, entries[0].Event)
	assert.Equal(t, "postgres://localhost/db", entries[0].Fields.URL)
	assert.Equal(t, probe.EventQueryStart, entries[1].Event)
	assert.Equal(t, "SELECT 1", entries[1].Fields.Query)
	assert.Equal(t, probe.EventQueryDone, entries[2].Event)
	assert.False(t, entries[0].Time.IsZero())

	assert.Equal(t, uint64(3), sink.Total())
}

func TestSink_OverwritesOldest(t *testing.T) {
	sink := New(2)
	connID := uuid.New()

	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 1, ConnID: connID, Query: "SELECT 1"})
	sink.Fire(probe.EventQueryDone, probe.Fields{ID: 1, ConnID: connID})
	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 2, ConnID: connID, Query: "SELECT 2"})

	entries := sink.Entries()
	require.Len(t, entries, 2)

	// The first query-start fell off the ring.
	assert.Equal(t, probe.EventQueryDone, entries[0].Event)
	assert.Equal(t, probe.ID(2), entries[1].Fields.ID)

	assert.Equal(t, uint64(3), sink.Total())
}

func TestSink_Handler(t *testing.T) {
	sink := New(8)
	connID := uuid.New()

	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 7, ConnID: connID, Query: "SELECT 1"})
	sink.Fire(probe.EventTransactionStart, probe.Fields{ConnID: connID, Depth: 0})

	req := httptest.NewRequest(http.MethodGet, "/debug/dbprobe", nil)
	rec := httptest.NewRecorder()
	sink.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload struct {
		Total   uint64           `json:"total"`
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.Equal(t, uint64(2), payload.Total)
	require.Len(t, payload.Entries, 2)

	first := payload.Entries[0]
	assert.Equal(t, "query-start", first["event"])
	assert.Equal(t, "SELECT 1", first["query"])
	assert.Equal(t, float64(7), first["probe_id"])
	assert.Equal(t, connID.String(), first["conn_id"])

	second := payload.Entries[1]
	assert.Equal(t, "transaction-start", second["event"])
	assert.Equal(t, float64(0), second["depth"])
	_, hasCommitted := second["committed"]
	assert.False(t, hasCommitted, "start entries carry no committed flag")
}

func TestNew_MinimumCapacity(t *testing.T) {
	sink := New(0)

	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 1, ConnID: uuid.New(), Query: "SELECT 1"})
	sink.Fire(probe.EventQueryDone, probe.Fields{ID: 1, ConnID: uuid.New()})

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, probe.EventQueryDone, entries[0].Event)
}
