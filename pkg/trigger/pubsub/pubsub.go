// Package pubsub implements the "google-pubsub" trigger: a long-poll source
// receiver against a pub/sub-style REST API.
//
// It talks the pull/ack wire contract directly over plain net/http against a
// configurable base URL rather than through the production GCP client SDK
// and its OAuth2 service-account signing, trading that SDK for direct
// control over the polling/backoff/ack protocol itself.
package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/internal/log"
	"firestige.xyz/webhookd/pkg/plugin"
)

func init() {
	plugin.RegisterTrigger("google-pubsub", func() plugin.Trigger { return &Receiver{} })
}

// defaultBaseURL mirrors the GCP pub/sub REST surface; overridable in config
// for tests and for alternative pub/sub-compatible endpoints.
const defaultBaseURL = "https://pubsub.googleapis.com"

type config struct {
	Credential     string `mapstructure:"credential"`
	SubscriptionID string `mapstructure:"subscription_id"`
	BaseURL        string `mapstructure:"base_url"`
}

// Receiver is the google-pubsub trigger plugin. Constructed empty by its
// factory; Init populates it from the definition file's config map.
type Receiver struct {
	subscriptionID string
	baseURL        string
	token          string
	client         *http.Client
}

func (r *Receiver) Name() string { return "google-pubsub" }

func (r *Receiver) Init(cfg map[string]any) error {
	var c config
	if err := decodeConfig(cfg, &c); err != nil {
		return fmt.Errorf("pubsub: %w", core.ErrInvalidConfig)
	}
	if c.SubscriptionID == "" {
		return fmt.Errorf("pubsub: missing subscription_id: %w", core.ErrInvalidConfig)
	}
	if c.Credential == "" {
		return fmt.Errorf("pubsub: missing credential: %w", core.ErrInvalidConfig)
	}

	token, err := resolveToken(c.Credential)
	if err != nil {
		return fmt.Errorf("pubsub: %w: %v", core.ErrInvalidCredential, err)
	}

	r.subscriptionID = c.SubscriptionID
	r.baseURL = c.BaseURL
	if r.baseURL == "" {
		r.baseURL = defaultBaseURL
	}
	r.token = token
	r.client = &http.Client{Timeout: 30 * time.Second}

	log.GetLogger().Debugf("initializing pubsub receiver for subscription %q", r.subscriptionID)
	return nil
}

func (r *Receiver) Start(ctx context.Context) error { return nil }
func (r *Receiver) Stop(ctx context.Context) error  { return nil }

// resolveToken extracts a bearer token from the JSON credential blob. Real
// service-account JWT signing is out of scope (see package doc); a
// "token" field is honored directly when present so tests and non-GCP
// pub/sub-compatible backends can supply one without a signing round-trip.
func resolveToken(credential string) (string, error) {
	var blob map[string]any
	if err := json.Unmarshal([]byte(credential), &blob); err != nil {
		return "", err
	}
	if tok, ok := blob["token"].(string); ok && tok != "" {
		return tok, nil
	}
	return "", nil
}

type pullRequest struct {
	MaxMessages      int  `json:"maxMessages"`
	ReturnImmediately bool `json:"returnImmediately"`
}

type pullResponse struct {
	ReceivedMessages []receivedMessage `json:"receivedMessages"`
}

type receivedMessage struct {
	AckID   string        `json:"ackId"`
	Message pubsubMessage `json:"message"`
}

type pubsubMessage struct {
	Data string `json:"data"`
}

type acknowledgeRequest struct {
	AckIDs []string `json:"ackIds"`
}

// GetOne polls the subscription, backing off on empty responses, until a
// message arrives or ctx is cancelled. The backoff loop is local to this
// call: every invocation starts fresh at wait_time = 1.0, so a quiet
// subscription doesn't carry growing latency into its next delivery.
func (r *Receiver) GetOne(ctx context.Context) (core.SourceMessage, error) {
	waitTime := 1.0

	for {
		log.GetLogger().Tracef("pulling message from pubsub (%s)", r.subscriptionID)

		resp, err := r.pull(ctx)
		if err != nil {
			return nil, fmt.Errorf("pubsub pull: %w: %v", core.ErrPullError, err)
		}

		if len(resp.ReceivedMessages) == 0 {
			timer := time.NewTimer(time.Duration(waitTime * float64(time.Second)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			waitTime *= 1.25
			if waitTime > 10.0 {
				waitTime = 10.0
			}
			continue
		}

		msg := resp.ReceivedMessages[0]
		content, err := base64.StdEncoding.DecodeString(msg.Message.Data)
		if err != nil {
			return nil, fmt.Errorf("pubsub decode: %w: %v", core.ErrPullError, err)
		}

		log.GetLogger().Tracef("pubsub (%s) received %d bytes", r.subscriptionID, len(content))

		return &event{
			content:        content,
			ackID:          msg.AckID,
			subscriptionID: r.subscriptionID,
			receiver:       r,
		}, nil
	}
}

func (r *Receiver) pull(ctx context.Context) (*pullResponse, error) {
	body, err := json.Marshal(pullRequest{MaxMessages: 1, ReturnImmediately: true})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/%s:pull", r.baseURL, r.subscriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	r.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out pullResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Receiver) acknowledge(ctx context.Context, ackID string) error {
	body, err := json.Marshal(acknowledgeRequest{AckIDs: []string{ackID}})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/%s:acknowledge", r.baseURL, r.subscriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	r.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

func (r *Receiver) authorize(req *http.Request) {
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
}

// event implements core.SourceMessage for one pulled pub/sub message.
type event struct {
	content        []byte
	ackID          string
	subscriptionID string
	receiver       *Receiver
}

func (e *event) Bytes() []byte { return e.content }

func (e *event) Ack(ctx context.Context) {
	log.GetLogger().Tracef("ack-ing pubsub message with ack-id %s", e.ackID)
	if err := e.receiver.acknowledge(ctx, e.ackID); err != nil {
		log.GetLogger().WithError(err).Errorf("error ack-ing pubsub message with ack-id %s", e.ackID)
		return
	}
	log.GetLogger().Tracef("message with ack-id %s ack-ed", e.ackID)
}

func decodeConfig(raw map[string]any, out *config) error {
	return mapstructure.Decode(raw, out)
}
