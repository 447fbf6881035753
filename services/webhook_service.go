package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yeremiapane/gamezone-pos/config"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionEvent is the JSON body posted to device webhooks.
type SessionEvent struct {
	DeviceType   string    `json:"deviceType"`
	DeviceNumber int       `json:"deviceNumber"`
	Status       string    `json:"status"`
	SessionID    uint      `json:"sessionId"`
	PlayerCount  int       `json:"playerCount"`
	Timestamp    time.Time `json:"timestamp"`
}

// NotificationResult dilaporkan balik ke caller; kegagalan webhook tidak membatalkan sesi.
type NotificationResult struct {
	Status   string `json:"status"`
	URL      string `json:"url,omitempty"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// Delivered is true only when the endpoint answered 2xx.
func (r NotificationResult) Delivered() bool {
	return r.Status == models.DeliveryStatusDelivered
}

// WebhookService mengirim event sesi ke URL per device (atau URL global).
type WebhookService struct {
	db         *gorm.DB
	routes     config.WebhookRoutes
	httpClient *http.Client
	maxTries   int
	monitor    *DeliveryMonitor
}

// NewWebhookService membuat instance baru WebhookService
func NewWebhookService(db *gorm.DB, routes config.WebhookRoutes, timeout time.Duration) *WebhookService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookService{
		db:     db,
		routes: routes,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxTries: 2,
	}
}

// Send posts event once, retrying a single time on failure. It never returns an error:
// the outcome is reported in the result and audited as a WebhookDelivery row.
func (ws *WebhookService) Send(ctx context.Context, event SessionEvent) NotificationResult {
	url := ws.routes.Lookup(event.DeviceType, event.DeviceNumber, event.Status)
	if url == "" {
		return NotificationResult{Status: models.DeliveryStatusSkipped}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return NotificationResult{Status: models.DeliveryStatusFailed, URL: url, Error: err.Error()}
	}

	result := NotificationResult{Status: models.DeliveryStatusFailed, URL: url}
	for result.Attempts < ws.maxTries {
		result.Attempts++
		err = ws.post(ctx, url, body)
		if err == nil {
			result.Status = models.DeliveryStatusDelivered
			result.Error = ""
			break
		}
		result.Error = err.Error()
		if ctx.Err() != nil {
			break
		}
	}

	fields := map[string]interface{}{
		"session_id": event.SessionID,
		"url":        url,
		"attempts":   result.Attempts,
	}
	if result.Delivered() {
		utils.InfoLogger.WithFields(fields).Info("webhook delivered")
	} else {
		utils.ErrorLogger.WithFields(fields).Errorf("webhook failed: %s", result.Error)
	}

	ws.record(event, url, body, result)
	return result
}

func (ws *WebhookService) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode, string(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (ws *WebhookService) record(event SessionEvent, url string, body []byte, result NotificationResult) {
	if ws.db == nil {
		return
	}
	delivery := models.WebhookDelivery{
		SessionID: event.SessionID,
		URL:       url,
		Status:    result.Status,
		Attempts:  result.Attempts,
		Error:     result.Error,
		Payload:   datatypes.JSON(body),
	}
	if err := ws.db.Create(&delivery).Error; err != nil {
		utils.ErrorLogger.WithError(err).WithField("session_id", event.SessionID).Error("failed to record webhook delivery")
	}
	if ws.monitor != nil {
		ws.monitor.observe(delivery)
	}
}
