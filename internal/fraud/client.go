// Package fraud calls the external fraud-scoring collaborator. Scoring is
// a reporting-only side call: it never blocks money movement and its
// failures never reach the user.
package fraud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type Summary struct {
	Amount            float64 `json:"amount"`
	Timestamp         string  `json:"timestamp"`
	Type              string  `json:"type"`
	ReceiverAccountID int64   `json:"receiver_account_id"`
	SenderAccountID   int64   `json:"sender_account_id"`
}

type Annotation struct {
	IsFraud bool    `json:"is_fraud"`
	Score   float64 `json:"score"`
}

type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Score asks the scorer to annotate a transaction summary. Any failure
// (unreachable, timeout, bad status, bad body) degrades to the neutral
// annotation so reporting keeps working without the scorer.
func (c *Client) Score(summary Summary) Annotation {
	neutral := Annotation{IsFraud: false, Score: 0}

	payload, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn("Failed to encode fraud summary", "error", err)
		return neutral
	}

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewBuffer(payload))
	if err != nil {
		c.logger.Warn("Failed to build fraud request", "error", err)
		return neutral
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Fraud scorer unreachable", "error", err)
		return neutral
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Fraud scorer returned error", "status", fmt.Sprint(resp.StatusCode))
		return neutral
	}

	var annotation Annotation
	if err := json.NewDecoder(resp.Body).Decode(&annotation); err != nil {
		c.logger.Warn("Failed to decode fraud response", "error", err)
		return neutral
	}
	return annotation
}
