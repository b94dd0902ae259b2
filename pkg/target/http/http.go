// Package http implements the "http" target: a list of POST entries whose
// URL is either a literal string or a {from_env: <Identifier>} spec resolved
// against the current program state.
package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/internal/log"
	"firestige.xyz/webhookd/pkg/plugin"
	"firestige.xyz/webhookd/pkg/state"
)

func init() {
	plugin.RegisterTarget("http", func() plugin.Target { return &Sender{} })
}

// MissingURLPlaceholder is substituted for an unresolved {from_env: ...} URL.
// The send still proceeds against this placeholder rather than aborting, so
// one entry with a bad URL reference doesn't stop the rest of the fan-out.
const MissingURLPlaceholder = "missing url"

// entry is one post: {url: ...} configuration line.
type entry struct {
	url urlSpec
}

// urlSpec is either a literal string or a {from_env: <Identifier>}.
type urlSpec struct {
	literal string
	fromEnv state.Identifier
	isEnv   bool
}

// Sender is the http target plugin.
type Sender struct {
	entries []entry
	client  *http.Client
}

func (s *Sender) Name() string { return "http" }

// Init parses the raw TargetSpec map, which carries the "http" discriminator
// key itself: {"http": [ {"post": {"url": ...}}, ... ]}.
func (s *Sender) Init(cfg map[string]any) error {
	raw, ok := cfg["http"]
	if !ok {
		return fmt.Errorf("http target: missing %q key: %w", "http", core.ErrInvalidConfig)
	}
	list, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("http target: %q must be a list: %w", "http", core.ErrInvalidConfig)
	}
	if len(list) == 0 {
		return fmt.Errorf("http target: %q must have at least one entry: %w", "http", core.ErrInvalidConfig)
	}

	entries := make([]entry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("http target: entry must be a map: %w", core.ErrInvalidConfig)
		}
		postRaw, ok := m["post"]
		if !ok {
			return fmt.Errorf("http target: only %q is supported: %w", "post", core.ErrInvalidConfig)
		}
		post, ok := postRaw.(map[string]any)
		if !ok {
			return fmt.Errorf("http target: %q must be a map: %w", "post", core.ErrInvalidConfig)
		}

		spec, err := parseURLSpec(post["url"])
		if err != nil {
			return fmt.Errorf("http target: %w", err)
		}
		entries = append(entries, entry{url: spec})
	}

	s.entries = entries
	s.client = &http.Client{Timeout: 30 * time.Second}
	return nil
}

func parseURLSpec(raw any) (urlSpec, error) {
	switch v := raw.(type) {
	case string:
		return urlSpec{literal: v}, nil
	case map[string]any:
		id, ok := v["from_env"].(string)
		if !ok {
			return urlSpec{}, fmt.Errorf("url: unrecognized shape, expected string or from_env: %w", core.ErrInvalidConfig)
		}
		return urlSpec{fromEnv: state.NewIdentifier(id), isEnv: true}, nil
	default:
		return urlSpec{}, fmt.Errorf("url: missing or invalid: %w", core.ErrInvalidConfig)
	}
}

// resolve looks up a from_env URL in the current state. A bound String
// scalar is used as-is; anything else (absent, non-string) resolves to
// MissingURLPlaceholder and the call proceeds anyway.
func (u urlSpec) resolve(st state.State) string {
	if !u.isEnv {
		return u.literal
	}
	item, ok := st.Get(u.fromEnv)
	if !ok || item.Kind != state.ItemValue || item.Scal.Kind != state.ValueString {
		return MissingURLPlaceholder
	}
	return item.Scal.Str
}

func (s *Sender) Start(ctx context.Context) error { return nil }
func (s *Sender) Stop(ctx context.Context) error  { return nil }

// Send POSTs the payload to every configured entry. Per-entry failures
// (transport error or non-2xx response) are logged, never propagated: the
// overall Send always returns nil so fan-out failure isolation holds.
func (s *Sender) Send(ctx context.Context, payload core.Payload, st state.State) error {
	for _, e := range s.entries {
		url := e.url.resolve(st)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload.Content))
		if err != nil {
			log.GetLogger().WithError(err).Errorf("http target: building request for %q", url)
			continue
		}

		resp, err := s.client.Do(req)
		if err != nil {
			log.GetLogger().WithError(err).Errorf("http target: posting to %q", url)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.GetLogger().Errorf("http target: %q returned status %d", url, resp.StatusCode)
		}
		resp.Body.Close()
	}
	return nil
}
