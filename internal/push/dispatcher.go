package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"grievance-portal-go/internal/metrics"
	"grievance-portal-go/internal/models"

	"github.com/SherClockHolmes/webpush-go"
)

// SubscriptionSource loads a user's registered device subscriptions.
type SubscriptionSource interface {
	GetSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error)
}

// SendFunc delivers one encrypted payload to one subscription. It
// exists so tests can swap out the Web Push transport.
type SendFunc func(ctx context.Context, message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// Payload is the JSON body handed to the device's service worker.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// Result reports a fan-out. Success is true only when every attempted
// delivery succeeded; zero subscriptions is a successful no-op.
type Result struct {
	Attempted int
	Delivered int
	Success   bool
}

type Dispatcher struct {
	subs            SubscriptionSource
	send            SendFunc
	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string
}

// NewDispatcher builds a dispatcher with the given VAPID key pair. If
// either key is empty a fresh pair is generated and logged so it can be
// persisted in the environment.
func NewDispatcher(subs SubscriptionSource, vapidPrivateKey, vapidPublicKey, subscriber string) (*Dispatcher, error) {
	if vapidPrivateKey == "" || vapidPublicKey == "" {
		log.Println("VAPID keys not found in environment. Generating new keys...")
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return nil, err
		}
		vapidPrivateKey = privateKey
		vapidPublicKey = publicKey
		log.Printf("Generated VAPID Keys:\nVAPID_PRIVATE_KEY=%s\nVAPID_PUBLIC_KEY=%s\n(Add these to your .env file to persist them)", privateKey, publicKey)
	}

	if subscriber == "" {
		subscriber = "mailto:admin@example.com"
	}

	return &Dispatcher{
		subs:            subs,
		send:            webpush.SendNotificationWithContext,
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriber:      subscriber,
	}, nil
}

// PublicKey returns the public VAPID key handed to browsers.
func (d *Dispatcher) PublicKey() string {
	return d.vapidPublicKey
}

// SetSendFunc replaces the Web Push transport. Intended for tests.
func (d *Dispatcher) SetSendFunc(send SendFunc) {
	d.send = send
}

// NotifyUser delivers {title, body} to every subscription the target
// user owns. Deliveries run concurrently and independently; one
// failing device never blocks the rest. Failures are logged, counted
// and folded into Result.Success, not returned per-device.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID int, title, body string) (Result, error) {
	subs, err := d.subs.GetSubscriptions(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	if len(subs) == 0 {
		return Result{Success: true}, nil
	}

	message, err := json.Marshal(Payload{
		Title: title,
		Body:  body,
		Icon:  "/static/icon.png",
	})
	if err != nil {
		return Result{}, err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()

			s := &webpush.Subscription{
				Endpoint: sub.Endpoint,
				Keys: webpush.Keys{
					P256dh: sub.P256dh,
					Auth:   sub.Auth,
				},
			}

			resp, err := d.send(ctx, message, s, &webpush.Options{
				Subscriber:      d.subscriber,
				VAPIDPublicKey:  d.vapidPublicKey,
				VAPIDPrivateKey: d.vapidPrivateKey,
				TTL:             30,
			})
			if err != nil {
				log.Printf("Failed to send push to %s: %v", sub.Endpoint, err)
				metrics.PushDeliveriesTotal.WithLabelValues("error").Inc()
				return
			}
			resp.Body.Close()

			metrics.PushDeliveriesTotal.WithLabelValues("ok").Inc()
			mu.Lock()
			delivered++
			mu.Unlock()
		}(sub)
	}

	wg.Wait()

	return Result{
		Attempted: len(subs),
		Delivered: delivered,
		Success:   delivered == len(subs),
	}, nil
}
