// Package classify wraps the external text-classification endpoint used for
// mood inference. The collaborator is optional and best-effort: any failure
// or a missing credential degrades to the neutral mood.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sofilmy/internal/metrics"
)

// MoodNeutral is the fallback when classification is unavailable or fails.
const MoodNeutral = "neutral"

// Label is one ranked classification label.
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Classifier struct {
	endpoint string
	token    string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

type Config struct {
	Endpoint string
	Token    string
	Client   *http.Client
	// Redis, when set, caches the inferred mood per normalized text.
	Redis    *redis.Client
	CacheTTL time.Duration
	Logger   *slog.Logger
}

func New(cfg Config) *Classifier {
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Classifier{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		token:    strings.TrimSpace(cfg.Token),
		http:     httpClient,
		redis:    cfg.Redis,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (c *Classifier) Enabled() bool {
	return c.endpoint != "" && c.token != ""
}

// Classify returns ranked labels for the text. Errors are returned so
// callers that care can log them; Mood is the fail-soft entry point.
func (c *Classifier) Classify(ctx context.Context, text string) ([]Label, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("text classifier not configured")
	}

	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ClassifierRequestsTotal.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("classifier HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	labels, err := decodeLabels(body)
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ClassifierRequestsTotal.WithLabelValues("ok").Inc()
	return labels, nil
}

// Mood returns the top-ranked label, or MoodNeutral when the collaborator
// is unconfigured, unreachable, or returns nothing usable.
func (c *Classifier) Mood(ctx context.Context, text string) string {
	if !c.Enabled() {
		return MoodNeutral
	}

	cacheKey := moodCacheKey(text)
	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			return cached
		}
	}

	labels, err := c.Classify(ctx, text)
	if err != nil {
		c.logger.Debug("mood classification failed", slog.String("error", err.Error()))
		return MoodNeutral
	}
	best := ""
	bestScore := 0.0
	for _, label := range labels {
		if label.Label != "" && label.Score > bestScore {
			best = strings.ToLower(label.Label)
			bestScore = label.Score
		}
	}
	if best == "" {
		return MoodNeutral
	}
	if c.redis != nil {
		_ = c.redis.Set(ctx, cacheKey, best, c.cacheTTL).Err()
	}
	return best
}

func moodCacheKey(text string) string {
	return "sofilmy:mood:" + strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// decodeLabels accepts both the nested ([[{label,score}]]) and flat
// ([{label,score}]) response layouts inference endpoints produce.
func decodeLabels(body []byte) ([]Label, error) {
	var nested [][]Label
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []Label
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}
