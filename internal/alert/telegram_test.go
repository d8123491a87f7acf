package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

func TestTelegramNotifier_SendsMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"ok":true}`)) //nolint:errcheck
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{
		BotToken: "token123",
		ChatID:   "chat456",
		BaseURL:  srv.URL,
	})

	opp := &model.LandOpportunity{
		Address:            "0 Ridge Top Rd, Asheville, NC",
		UrgencyScore:       92,
		UrgencyLevel:       model.UrgencyUrgent,
		ZoneColor:          model.ZoneGreen,
		MarketStatus:       model.MarketGrowing,
		NearbyAvgPriceSqft: 285,
		RecentSalesCount:   4,
	}
	require.NoError(t, n.Notify(context.Background(), opp))

	assert.Equal(t, "/bottoken123/sendMessage", gotPath)
	assert.Equal(t, "chat456", gotPayload["chat_id"])
	assert.Contains(t, gotPayload["text"], "Ridge Top Rd")
	assert.Contains(t, gotPayload["text"], "92/100")
}

func TestTelegramNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{BaseURL: srv.URL})
	err := n.Notify(context.Background(), &model.LandOpportunity{})
	assert.Error(t, err)
}

// fakeNotifier records notifications and can fail on demand.
type fakeNotifier struct {
	sent     []string
	failNext bool
}

func (f *fakeNotifier) Notify(_ context.Context, opp *model.LandOpportunity) error {
	if f.failNext {
		f.failNext = false
		return eris.New("boom")
	}
	f.sent = append(f.sent, opp.ParcelID)
	return nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedOpportunity(t *testing.T, st store.Store, parcelID string, level model.UrgencyLevel) {
	t.Helper()
	require.NoError(t, st.UpsertOpportunity(context.Background(), &model.LandOpportunity{
		ParcelID:     parcelID,
		Address:      "addr " + parcelID,
		ZoneColor:    model.ZoneGreen,
		MarketStatus: model.MarketGrowing,
		UrgencyScore: 90,
		UrgencyLevel: level,
		FilterPassed: true,
	}))
}

func TestDispatchPending_SendsOnlyUrgentOnce(t *testing.T) {
	st := newTestStore(t)
	seedOpportunity(t, st, "p-urgent", model.UrgencyUrgent)
	seedOpportunity(t, st, "p-good", model.UrgencyGood)

	notifier := &fakeNotifier{}
	d := NewDispatcher(st, notifier)

	sent, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"p-urgent"}, notifier.sent)

	// Second run finds nothing new.
	sent, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestDispatchPending_FailureLeavesPending(t *testing.T) {
	st := newTestStore(t)
	seedOpportunity(t, st, "p1", model.UrgencyUrgent)

	notifier := &fakeNotifier{failNext: true}
	d := NewDispatcher(st, notifier)

	sent, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	// Retry succeeds and marks it.
	sent, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}
