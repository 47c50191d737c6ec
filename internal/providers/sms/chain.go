package sms

import (
	"context"
	"fmt"
	"net/http"

	"github.com/salestrackpro/salestrack/internal/config"
	"go.uber.org/zap"
)

// Chain tries each configured gateway in priority order and
// short-circuits on the first success. Provider calls are wrapped so a
// panic inside a client degrades to "try the next one".
type Chain struct {
	holder *config.NotificationConfigHolder
	log    *zap.Logger
}

func NewChain(holder *config.NotificationConfigHolder, log *zap.Logger) *Chain {
	return &Chain{
		holder: holder,
		log:    log.Named("sms.chain"),
	}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Send(ctx context.Context, phone string, message string) error {
	cfg := c.holder.Get()
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	for _, providerCfg := range cfg.SMSProviders {
		provider := build(providerCfg, client)
		if provider == nil {
			continue
		}
		if err := trySend(ctx, provider, phone, message); err != nil {
			c.log.Warn("sms provider failed",
				zap.String("provider", provider.Name()),
				zap.Error(err),
			)
			continue
		}
		c.log.Info("sms delivered",
			zap.String("provider", provider.Name()),
		)
		return nil
	}

	return ErrAllProvidersFailed
}

func build(cfg config.SMSProviderConfig, client *http.Client) Provider {
	switch cfg.Name {
	case "textbelt":
		key := cfg.APIKey
		if key == "" {
			key = "textbelt"
		}
		return NewTextbelt(key, client)
	case "sms77":
		if cfg.APIKey == "" {
			return nil
		}
		return NewSMS77(cfg.APIKey, client)
	case "smsapi":
		if cfg.APIKey == "" {
			return nil
		}
		return NewSMSAPI(cfg.APIKey, client)
	default:
		return nil
	}
}

func trySend(ctx context.Context, provider Provider, phone string, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider %s panicked: %v", provider.Name(), r)
		}
	}()
	return provider.Send(ctx, phone, message)
}
