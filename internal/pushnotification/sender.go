// Package pushnotification sends browser push notifications about
// over-allocated resources.
package pushnotification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/ganttguild/internal/config"
	"github.com/kazz187/ganttguild/internal/pushsubscription"
)

type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type Sender struct {
	vapidEnv    *config.VAPIDEnv
	repo        pushsubscription.Repository
	httpClient  webpush.HTTPClient
	concurrency int
}

type SenderOption func(*Sender)

// WithHTTPClient replaces the client used to reach push services.
func WithHTTPClient(c webpush.HTTPClient) SenderOption {
	return func(s *Sender) {
		s.httpClient = c
	}
}

func WithConcurrency(n int) SenderOption {
	return func(s *Sender) {
		s.concurrency = n
	}
}

func NewSender(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, opts ...SenderOption) *Sender {
	s := &Sender{
		vapidEnv:    vapidEnv,
		repo:        repo,
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendToAll pushes payload to every subscription interested in viewID and
// returns how many push services accepted it.
func (s *Sender) SendToAll(ctx context.Context, viewID string, payload *NotificationPayload) int {
	if !s.vapidEnv.Enabled() {
		slog.WarnContext(ctx, "push notification: VAPID keys not configured, skipping")
		return 0
	}

	subs, err := s.repo.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to list subscriptions", "error", err)
		return 0
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to marshal payload", "error", err)
		return 0
	}

	var delivered atomic.Int64
	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, sub := range subs {
		if !sub.Wants(viewID) {
			continue
		}
		p.Go(func() {
			if s.sendToSubscription(ctx, sub, data) {
				delivered.Add(1)
			}
		})
	}
	p.Wait()
	return int(delivered.Load())
}

func (s *Sender) sendToSubscription(ctx context.Context, sub *pushsubscription.Subscription, data []byte) bool {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, wpSub, &webpush.Options{
		HTTPClient:      s.httpClient,
		VAPIDPublicKey:  s.vapidEnv.PublicKey,
		VAPIDPrivateKey: s.vapidEnv.PrivateKey,
		Subscriber:      s.vapidEnv.Contact,
		TTL:             86400,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to send", "endpoint", sub.Endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		slog.InfoContext(ctx, "push notification: subscription expired, removing", "endpoint", sub.Endpoint)
		if err := s.repo.Delete(ctx, sub.ID); err != nil {
			slog.ErrorContext(ctx, "push notification: failed to delete expired subscription", "id", sub.ID, "error", err)
		}
		return false
	}

	if resp.StatusCode >= 400 {
		slog.WarnContext(ctx, "push notification: unexpected status", "endpoint", sub.Endpoint, "status", resp.StatusCode)
		return false
	}
	return true
}
