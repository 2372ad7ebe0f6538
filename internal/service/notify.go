package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clan-hub/internal/config"
	"clan-hub/internal/logger"
)

// Notifier delivers best-effort push notifications. It never reports failure
// to the caller.
type Notifier interface {
	SendBulk(ctx context.Context, tokens []string, title, body string)
}

// PushDispatcher talks to an FCM-style HTTP gateway.
type PushDispatcher struct {
	endpoint  string
	serverKey string
	batchSize int
	client    *http.Client
	metrics   *Metrics
}

func NewPushDispatcher(cfg config.PushConfig, metrics *Metrics) *PushDispatcher {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &PushDispatcher{
		endpoint:  cfg.Endpoint,
		serverKey: cfg.ServerKey,
		batchSize: batch,
		client:    &http.Client{Timeout: timeout},
		metrics:   metrics,
	}
}

func (d *PushDispatcher) SendBulk(ctx context.Context, tokens []string, title, body string) {
	tokens = uniqueTokens(tokens)
	if len(tokens) == 0 {
		return
	}
	if d.endpoint == "" {
		logger.Warn("push.disabled", "title", title, "recipients", len(tokens))
		d.metrics.PushFailed.Add(float64(len(tokens)))
		return
	}

	for start := 0; start < len(tokens); start += d.batchSize {
		end := min(start+d.batchSize, len(tokens))
		batch := tokens[start:end]
		ok, failed, err := d.sendBatch(ctx, batch, title, body)
		if err != nil {
			logger.Warn("push.batch_failed", "size", len(batch), "err", err)
			d.metrics.PushFailed.Add(float64(len(batch)))
			continue
		}
		d.metrics.PushSent.Add(float64(ok))
		d.metrics.PushFailed.Add(float64(failed))
		logger.Debug("push.batch", "size", len(batch), "sent", ok, "failed", failed)
		if failed > 0 {
			logger.Info("push.partial", "sent", ok, "failed", failed)
		}
	}
}

func (d *PushDispatcher) sendBatch(ctx context.Context, tokens []string, title, body string) (int, int, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"registration_ids": tokens,
		"priority":         "high",
		"notification":     map[string]string{"title": title, "body": body},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.serverKey != "" {
		req.Header.Set("Authorization", "key="+d.serverKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("push call: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("push status %d: %s", resp.StatusCode, data)
	}
	var result struct {
		Success int `json:"success"`
		Failure int `json:"failure"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}
	return result.Success, result.Failure, nil
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
