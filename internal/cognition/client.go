// HTTP cognition provider. Posts the bounded context as JSON and expects a
// structured intent back; the response is schema-validated before it is even
// parsed into an Intent, so malformed provider output is rejected at the
// boundary.
package cognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// intentSchema constrains provider responses: a known action label plus
// optional target hints. Anything outside this shape is discarded.
const intentSchema = `{
	"type": "object",
	"required": ["action"],
	"properties": {
		"action": {
			"type": "string",
			"enum": ["idle", "seek-food", "flee-threat", "fight", "seek-social",
			         "explore", "seek-mate", "defend-territory", "trade", "raid",
			         "preach", "scout", "negotiate", "depart"]
		},
		"target_agent": {"type": "integer", "minimum": 0},
		"target_x": {"type": "integer"},
		"target_y": {"type": "integer"},
		"reasoning": {"type": "string", "maxLength": 400}
	},
	"additionalProperties": false
}`

// HTTPProvider talks to a remote cognition endpoint.
type HTTPProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	schema     *jsonschema.Schema

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewHTTPProvider creates a provider client. Returns nil when endpoint is
// empty — cognition features disabled.
func NewHTTPProvider(endpoint, apiKey string, timeout time.Duration, maxPerMin int) *HTTPProvider {
	if endpoint == "" {
		return nil
	}
	schema, err := jsonschema.CompileString("intent.json", intentSchema)
	if err != nil {
		// The schema is a compile-time constant; failing to compile it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("compile intent schema: %v", err))
	}
	return &HTTPProvider{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		schema:     schema,
		maxPerMin:  maxPerMin,
	}
}

// Enabled reports whether the provider can be called at all.
func (p *HTTPProvider) Enabled() bool {
	return p != nil && p.endpoint != ""
}

// Propose sends the request and validates the response. Every error return
// is recoverable; the caller falls back to rule-based selection.
func (p *HTTPProvider) Propose(ctx context.Context, req Request) (Intent, error) {
	if !p.Enabled() {
		return Intent{}, fmt.Errorf("cognition provider not configured")
	}

	// Rate limiting.
	p.mu.Lock()
	now := time.Now()
	if now.After(p.resetAt) {
		p.callCount = 0
		p.resetAt = now.Add(time.Minute)
	}
	if p.callCount >= p.maxPerMin {
		p.mu.Unlock()
		return Intent{}, fmt.Errorf("rate limit exceeded (%d calls/min)", p.maxPerMin)
	}
	p.callCount++
	p.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		return Intent{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Intent{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Intent{}, fmt.Errorf("provider call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Intent{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Intent{}, fmt.Errorf("provider error %d: %s", resp.StatusCode, string(respBody))
	}

	return p.parseIntent(respBody)
}

// parseIntent extracts and validates the intent object. Providers sometimes
// wrap the JSON in prose; the first balanced object is extracted before
// validation.
func (p *HTTPProvider) parseIntent(raw []byte) (Intent, error) {
	text := string(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Intent{}, fmt.Errorf("no JSON object in response")
	}
	objText := text[start : end+1]

	var generic any
	if err := json.Unmarshal([]byte(objText), &generic); err != nil {
		return Intent{}, fmt.Errorf("parse intent: %w", err)
	}
	if err := p.schema.Validate(generic); err != nil {
		return Intent{}, fmt.Errorf("intent failed schema validation: %w", err)
	}

	var intent Intent
	if err := json.Unmarshal([]byte(objText), &intent); err != nil {
		return Intent{}, fmt.Errorf("decode intent: %w", err)
	}

	slog.Debug("cognition intent received", "action", intent.Action)
	return intent, nil
}
