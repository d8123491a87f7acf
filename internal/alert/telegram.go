// Package alert pushes urgent land opportunities to Telegram.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/resilience"
	"github.com/parcelworks/landscout/internal/store"
)

// Notifier delivers one opportunity alert.
type Notifier interface {
	Notify(ctx context.Context, opp *model.LandOpportunity) error
}

// TelegramNotifier pushes alerts through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates a notifier from config.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends one opportunity message via sendMessage.
func (n *TelegramNotifier) Notify(ctx context.Context, opp *model.LandOpportunity) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(opp),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "alert: marshal payload")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "alert: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "alert: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := eris.Errorf("alert: telegram status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		return eris.New("alert: telegram returned ok=false")
	}
	return nil
}

func renderMessage(opp *model.LandOpportunity) string {
	var b strings.Builder
	b.WriteString("🔥 URGENT LAND OPPORTUNITY\n\n")
	fmt.Fprintf(&b, "%s\n", opp.Address)
	fmt.Fprintf(&b, "Urgency: %d/100 (%s)\n", opp.UrgencyScore, opp.UrgencyLevel)
	fmt.Fprintf(&b, "Zone: %s | Market: %s\n", opp.ZoneColor, opp.MarketStatus)
	fmt.Fprintf(&b, "Nearby avg: $%.0f/sqft\n", opp.NearbyAvgPriceSqft)
	fmt.Fprintf(&b, "Recent sales nearby: %d\n", opp.RecentSalesCount)
	if opp.Notes != "" {
		b.WriteString(opp.Notes)
	}
	return b.String()
}

// Dispatcher finds urgent opportunities that have not been alerted yet and
// sends them, marking each one so it never alerts twice.
type Dispatcher struct {
	store    store.Store
	notifier Notifier
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(st store.Store, notifier Notifier) *Dispatcher {
	return &Dispatcher{store: st, notifier: notifier}
}

// DispatchPending alerts every urgent, not-yet-alerted opportunity. A send
// failure leaves the opportunity unalerted for the next run.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	pending, err := d.store.ListOpportunities(ctx, store.OpportunityFilter{
		Level:      model.UrgencyUrgent,
		NotAlerted: true,
	})
	if err != nil {
		return 0, err
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("telegram", "sendMessage")

	var sent int
	for i := range pending {
		opp := &pending[i]
		err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
			return d.notifier.Notify(ctx, opp)
		})
		if err != nil {
			zap.L().Warn("alert delivery failed",
				zap.String("parcel_id", opp.ParcelID), zap.Error(err))
			continue
		}
		if err := d.store.MarkAlerted(ctx, opp.ID, time.Now()); err != nil {
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		zap.L().Info("alerts dispatched", zap.Int("sent", sent), zap.Int("pending", len(pending)))
	}
	return sent, nil
}
