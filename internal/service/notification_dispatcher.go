package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"solarops/internal/domain"
	"solarops/internal/port"
)

// DispatcherConfig holds settings for the status-change notifier.
type DispatcherConfig struct {
	Workers   int
	Buffer    int
	Timeout   time.Duration
	Recipient string
	BaseURL   string
}

// NotificationDispatcher queues override events and emails them from a
// bounded worker pool. Delivery failures are logged and dropped.
type NotificationDispatcher struct {
	notifier port.Notifier
	cfg      DispatcherConfig
	queue    chan domain.StatusChangeEvent
	wg       sync.WaitGroup
}

// NewNotificationDispatcher creates a new NotificationDispatcher.
func NewNotificationDispatcher(notifier port.Notifier, cfg DispatcherConfig) *NotificationDispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &NotificationDispatcher{
		notifier: notifier,
		cfg:      cfg,
		queue:    make(chan domain.StatusChangeEvent, cfg.Buffer),
	}
}

// Publish enqueues evt without blocking. A full queue drops the event.
func (d *NotificationDispatcher) Publish(evt domain.StatusChangeEvent) {
	select {
	case d.queue <- evt:
	default:
		zap.L().Warn("notificationDispatcher: queue full, dropping notification",
			zap.String("filename", evt.Filename),
			zap.String("new_status", string(evt.NewStatus)))
	}
}

// Start runs the workers until ctx is canceled, then delivers whatever is
// still queued and returns once every worker has finished.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	zap.L().Info("notificationDispatcher: started",
		zap.Int("workers", d.cfg.Workers), zap.Int("buffer", d.cfg.Buffer))

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					d.drain()
					return
				case evt := <-d.queue:
					d.deliver(evt)
				}
			}
		}()
	}

	<-ctx.Done()
	zap.L().Info("notificationDispatcher: shutting down, draining queue...")
	d.wg.Wait()
	zap.L().Info("notificationDispatcher: shutdown complete")
}

func (d *NotificationDispatcher) drain() {
	for {
		select {
		case evt := <-d.queue:
			d.deliver(evt)
		default:
			return
		}
	}
}

func (d *NotificationDispatcher) deliver(evt domain.StatusChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("notificationDispatcher: notifier panicked",
				zap.String("filename", evt.Filename),
				zap.Any("panic", r))
		}
	}()

	// Fresh context so queued mail still goes out during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	subject, body := StatusChangeMessage(evt, d.cfg.BaseURL)
	if err := d.notifier.Notify(ctx, d.cfg.Recipient, subject, body); err != nil {
		zap.L().Error("notificationDispatcher: delivery failed",
			zap.String("filename", evt.Filename),
			zap.String("recipient", d.cfg.Recipient),
			zap.Error(err))
		return
	}
	zap.L().Debug("notificationDispatcher: delivered",
		zap.String("filename", evt.Filename), zap.String("recipient", d.cfg.Recipient))
}

// AuditURL returns the link to a record's audit trail.
func AuditURL(baseURL, filename string) string {
	return strings.TrimRight(baseURL, "/") + "/api/v1/records/" + url.PathEscape(filename) + "/audit"
}

// StatusChangeMessage renders the subject and plain-text body for evt.
func StatusChangeMessage(evt domain.StatusChangeEvent, baseURL string) (string, string) {
	subject := fmt.Sprintf("[SolarOps] File '%s' status updated", evt.Filename)
	body := fmt.Sprintf(`Hi,

The file %s status has changed.

- Old Status: %s
- New Status: %s
- Reviewer: %s
- Comment: %s

View audit: %s

Thank you,
SolarOps
`, evt.Filename, evt.OldStatus, evt.NewStatus, evt.Reviewer, evt.Comment, AuditURL(baseURL, evt.Filename))
	return subject, body
}
