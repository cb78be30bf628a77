package football

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_QueryWireFormat(t *testing.T) {
	var received QueryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"Items":[{"PLAYER_ID":"817181","PLAYER_NAME":"Cole Palmer"}]}`))
	}))
	defer server.Close()

	client := NewClient(WithQueryURL(server.URL))
	items, err := client.Query(context.Background(), QueryRequest{
		TableName:  "dim_players",
		GSI:        "true",
		IndexName:  "PLAYER_NAME",
		Operation:  "eq",
		QueryValue: "Cole Palmer",
	})
	require.NoError(t, err)

	assert.Equal(t, "dim_players", received.TableName)
	assert.Equal(t, "true", received.GSI)
	assert.Equal(t, "PLAYER_NAME", received.IndexName)
	assert.Equal(t, "eq", received.Operation)
	assert.Equal(t, "Cole Palmer", received.QueryValue)

	require.Len(t, items, 1)
	id, ok := ItemInt(items[0], "PLAYER_ID")
	require.True(t, ok)
	assert.Equal(t, 817181, id)
}

func TestClient_ScanWireFormat(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		// the scan lambda returns a bare list
		_, _ = w.Write([]byte(`[{"EVENT_ID": 120}, {"EVENT_ID": 121}]`))
	}))
	defer server.Close()

	client := NewClient(WithScanURL(server.URL))
	filter := AndFilter(
		AtomicFilter("HOME_TEAM_ID", "eq", 44),
		OrFilter(
			AtomicFilter("EVENT_DATE", "eq", "2025-04-26"),
			AtomicFilter("EVENT_DATE", "eq", "2025-05-11"),
		),
	)
	items, err := client.Scan(context.Background(), ScanRequest{
		TableName: "dim_events",
		Filter:    &filter,
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.Equal(t, "dim_events", received["table_name"])
	sent := received["filter"].(map[string]any)
	assert.Equal(t, "logical", sent["type"])
	assert.Equal(t, "and", sent["operation"])
	subs := sent["subfilters"].([]any)
	require.Len(t, subs, 2)
	atomic := subs[0].(map[string]any)
	assert.Equal(t, "atomic", atomic["type"])
	assert.Equal(t, "HOME_TEAM_ID", atomic["attribute"])
	nested := subs[1].(map[string]any)
	assert.Equal(t, "or", nested["operation"])
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithQueryURL(server.URL))
	_, err := client.Query(context.Background(), QueryRequest{TableName: "dim_players"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestItemInt_HandlesStoreNumberShapes(t *testing.T) {
	item := Item{
		"AS_FLOAT":  float64(42),
		"AS_STRING": "17",
		"AS_TEXT":   "not a number",
	}

	v, ok := ItemInt(item, "AS_FLOAT")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	v, ok = ItemInt(item, "AS_STRING")
	require.True(t, ok)
	assert.Equal(t, 17, v)

	_, ok = ItemInt(item, "AS_TEXT")
	assert.False(t, ok)

	_, ok = ItemInt(item, "MISSING")
	assert.False(t, ok)
}
