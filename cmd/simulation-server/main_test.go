package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officesim"
	"officesim/journal"
	"officesim/shared"
)

func TestLoadRoster(t *testing.T) {
	roster, err := loadRoster("")
	require.NoError(t, err)
	assert.Equal(t, officesim.DefaultRoster(), roster)

	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"solo","name":"Solo","position":[1,0,1]}]`), 0o600))
	roster, err = loadRoster(path)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "solo", roster[0].ID)

	_, err = loadRoster(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestJournalSinkAndTransitionsEndpoint(t *testing.T) {
	jr, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer jr.Close()

	clock := newManualClock()
	core := newTestCore(t, clock, "")
	sink, stop := startJournal(jr)
	core.AddTransitionSink(sink)

	clock.Advance(24 * time.Second)
	core.Tick()
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recorded, err := jr.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recorded, 5)

	hub := NewViewerHub(core)
	defer hub.Close()
	handler := newHTTPHandler(core, hub, jr)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transitions?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var events []shared.TransitionEvent
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	assert.Len(t, events, 2)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transitions?agent=writer", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	events = nil
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "writer", events[0].AgentID)
	assert.Equal(t, "going_to_rest", events[0].To)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transitions?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transitions?agent=nobody", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
