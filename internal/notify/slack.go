package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Deliverer sends a composed document to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, doc Document) error
}

// Slack posts documents to an incoming webhook.
type Slack struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewSlack returns a deliverer for the given webhook URL. A zero
// timeout falls back to 20 seconds.
func NewSlack(webhookURL string, timeout time.Duration, logger *zap.Logger) *Slack {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Deliver posts doc to the webhook. Any response status at or above
// 300 is a failure; callers must not record seen IDs when delivery
// fails.
func (s *Slack) Deliver(ctx context.Context, doc Document) error {
	payload, err := marshalDocument(doc, "")
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("slack webhook: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s.logger.Debug("notification delivered", zap.Int("blocks", len(doc.Blocks)))
	return nil
}

// Printer writes the document to a writer instead of posting it. It
// backs both the dry-run flag and the no-webhook-configured path.
type Printer struct {
	out io.Writer
}

// NewPrinter returns a deliverer that prints to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Deliver writes the document as indented JSON.
func (p *Printer) Deliver(_ context.Context, doc Document) error {
	payload, err := marshalDocument(doc, "  ")
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	_, err = p.out.Write(payload)
	return err
}

// marshalDocument encodes without HTML escaping so Slack link markup
// like <url|label> survives verbatim.
func marshalDocument(doc Document, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
