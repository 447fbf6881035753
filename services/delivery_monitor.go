package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/utils"
	"gorm.io/gorm"
)

// DeliveryMetrics menyimpan metrik pengiriman webhook
type DeliveryMetrics struct {
	Total     int64 `json:"total"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Retried   int64 `json:"retried"`
	GaveUp    int64 `json:"gave_up"`
}

// DeliveryMonitor counts webhook outcomes and redelivers failed ones in the background,
// after the request that triggered them has already answered.
type DeliveryMonitor struct {
	db            *gorm.DB
	webhook       *WebhookService
	metrics       DeliveryMetrics
	retryQueue    []uint
	retryInterval time.Duration
	maxAttempts   int
	mutex         sync.Mutex
}

// NewDeliveryMonitor membuat instance baru DeliveryMonitor dan memasangnya ke webhook.
func NewDeliveryMonitor(db *gorm.DB, webhook *WebhookService, retryInterval time.Duration) *DeliveryMonitor {
	if retryInterval <= 0 {
		retryInterval = time.Minute
	}
	dm := &DeliveryMonitor{
		db:            db,
		webhook:       webhook,
		retryQueue:    make([]uint, 0),
		retryInterval: retryInterval,
		maxAttempts:   5,
	}
	if webhook != nil {
		webhook.monitor = dm
	}
	return dm
}

// Start memulai goroutine retry sampai ctx selesai
func (dm *DeliveryMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(dm.retryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				dm.RetryPending(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	utils.InfoLogger.Info("webhook delivery monitor started")
}

// observe dipanggil WebhookService setiap kali satu delivery dicatat.
func (dm *DeliveryMonitor) observe(delivery models.WebhookDelivery) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.metrics.Total++
	switch delivery.Status {
	case models.DeliveryStatusDelivered:
		dm.metrics.Delivered++
	case models.DeliveryStatusSkipped:
		dm.metrics.Skipped++
	case models.DeliveryStatusFailed:
		dm.metrics.Failed++
		if delivery.ID != 0 {
			dm.enqueueLocked(delivery.ID)
		}
	}
}

func (dm *DeliveryMonitor) enqueueLocked(id uint) {
	for _, queued := range dm.retryQueue {
		if queued == id {
			return
		}
	}
	dm.retryQueue = append(dm.retryQueue, id)
}

// RetryPending drains the queue once.
func (dm *DeliveryMonitor) RetryPending(ctx context.Context) {
	dm.mutex.Lock()
	if len(dm.retryQueue) == 0 {
		dm.mutex.Unlock()
		return
	}
	queue := make([]uint, len(dm.retryQueue))
	copy(queue, dm.retryQueue)
	dm.retryQueue = make([]uint, 0)
	dm.mutex.Unlock()

	for _, id := range queue {
		dm.retryDelivery(ctx, id)
	}
}

func (dm *DeliveryMonitor) retryDelivery(ctx context.Context, id uint) {
	log := utils.ErrorLogger.WithField("delivery_id", id)

	var delivery models.WebhookDelivery
	if err := dm.db.WithContext(ctx).First(&delivery, id).Error; err != nil {
		log.WithError(err).Error("webhook delivery not found for retry")
		return
	}
	if delivery.Status == models.DeliveryStatusDelivered {
		return
	}
	if delivery.Attempts >= dm.maxAttempts {
		log.Warn("webhook delivery gave up")
		dm.mutex.Lock()
		dm.metrics.GaveUp++
		dm.mutex.Unlock()
		return
	}

	err := dm.webhook.post(ctx, delivery.URL, delivery.Payload)
	updates := map[string]interface{}{"attempts": delivery.Attempts + 1}
	if err == nil {
		updates["status"] = models.DeliveryStatusDelivered
		updates["error"] = ""
	} else {
		updates["error"] = err.Error()
	}
	if dbErr := dm.db.WithContext(ctx).Model(&models.WebhookDelivery{}).Where("id = ?", id).Updates(updates).Error; dbErr != nil {
		log.WithError(dbErr).Error("failed to update webhook delivery")
	}

	dm.mutex.Lock()
	defer dm.mutex.Unlock()
	dm.metrics.Retried++
	if err != nil {
		dm.enqueueLocked(id)
		return
	}
	dm.metrics.Delivered++
	utils.InfoLogger.WithField("delivery_id", id).Info("webhook redelivered")
}

// GetMetrics mengembalikan metrik pengiriman saat ini
func (dm *DeliveryMonitor) GetMetrics() DeliveryMetrics {
	if dm == nil {
		return DeliveryMetrics{}
	}
	dm.mutex.Lock()
	defer dm.mutex.Unlock()
	return dm.metrics
}
