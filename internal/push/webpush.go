package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"plufi-chat/internal/models"
)

// Outcome classifies one delivery attempt. Callers branch only on Gone to
// prune dead subscriptions; everything else is best-effort.
type Outcome string

const (
	Delivered     Outcome = "delivered"
	Gone          Outcome = "gone"
	Failed        Outcome = "failed"
	NotConfigured Outcome = "not_configured"
)

// Sender is the push delivery collaborator.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) Outcome
}

// WebPushSender delivers VAPID web push notifications.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subject    string
}

// NewWebPushSender constructs a WebPushSender. Missing or malformed VAPID
// settings yield a sender that reports NotConfigured for every attempt.
func NewWebPushSender(publicKey, privateKey, subject string) *WebPushSender {
	return &WebPushSender{publicKey: publicKey, privateKey: privateKey, subject: subject}
}

func (s *WebPushSender) configured() bool {
	return s.publicKey != "" && s.privateKey != "" && strings.HasPrefix(s.subject, "mailto:")
}

// Send attempts one delivery. It never returns an error: push failures must
// not propagate into the message send path.
func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) Outcome {
	if !s.configured() {
		return NotConfigured
	}
	if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return Failed
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Failed
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		log.Printf("web push failed for subscription %d: %v", sub.ID, err)
		return Failed
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return Gone
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Delivered
	}
	log.Printf("web push rejected for subscription %d: status=%d", sub.ID, resp.StatusCode)
	return Failed
}
