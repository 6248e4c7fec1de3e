// Package email selects the notification delivery backend.
package email

import (
	"github.com/rotisserie/eris"

	"solarops/internal/config"
	"solarops/internal/email/noop"
	"solarops/internal/email/ses"
	"solarops/internal/port"
)

// NewNotifier builds the Notifier named by cfg.Provider.
func NewNotifier(cfg *config.EmailConfig) (port.Notifier, error) {
	switch cfg.Provider {
	case "", "noop":
		return noop.NewNoopSender(), nil
	case "ses":
		return ses.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName)
	default:
		return nil, eris.Errorf("unknown email provider %q", cfg.Provider)
	}
}
