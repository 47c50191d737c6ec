package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// NotificationConfig holds the delivery settings for invitation
// email/SMS dispatch. It lives in its own file so operators can tune
// provider keys and retry behavior without restarting the service.
type NotificationConfig struct {
	SMSProviders []SMSProviderConfig `mapstructure:"smsProviders"`
	Retry        RetryConfig         `mapstructure:"retry"`
	HTTPTimeout  time.Duration       `mapstructure:"httpTimeout"`
}

type SMSProviderConfig struct {
	Name   string `mapstructure:"name"`
	APIKey string `mapstructure:"apiKey"`
}

// RetryConfig is the transport-delivery retry policy. Retry applies to
// delivery only, never to data-consistency operations.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"maxAttempts"`
	BaseDelay   time.Duration `mapstructure:"baseDelay"`
	Multiplier  int           `mapstructure:"multiplier"`
}

func DefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		SMSProviders: []SMSProviderConfig{
			{Name: "textbelt", APIKey: "textbelt"},
			{Name: "sms77"},
			{Name: "smsapi"},
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   10 * time.Second,
			Multiplier:  3,
		},
		HTTPTimeout: 30 * time.Second,
	}
}

type NotificationConfigHolder struct {
	current atomic.Value // holds NotificationConfig
}

func NewNotificationConfigHolder(appCfg Config) (*NotificationConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("notification")
	v.SetConfigType("yml")
	if appCfg.NotificationConfigPath != "" {
		v.AddConfigPath(appCfg.NotificationConfigPath)
	}
	v.AddConfigPath("/etc/salestrack")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SALESTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultNotificationConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("notification.smsProviders", defaults.SMSProviders)
		v.SetDefault("notification.retry", defaults.Retry)
		v.SetDefault("notification.httpTimeout", defaults.HTTPTimeout)
	}

	var cfg NotificationConfig
	if err := v.UnmarshalKey("notification", &cfg); err != nil {
		return nil, err
	}
	applyNotificationDefaults(&cfg, defaults)
	if err := validateNotificationConfig(cfg); err != nil {
		return nil, err
	}

	holder := &NotificationConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated NotificationConfig
		if err := v.UnmarshalKey("notification", &updated); err != nil {
			log.Printf("[notification-config] reload failed: %v", err)
			return
		}
		applyNotificationDefaults(&updated, defaults)
		if err := validateNotificationConfig(updated); err != nil {
			log.Printf("[notification-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[notification-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticNotificationConfigHolder wraps a fixed config with no file
// watching. Used by tests and tooling.
func NewStaticNotificationConfigHolder(cfg NotificationConfig) *NotificationConfigHolder {
	holder := &NotificationConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *NotificationConfigHolder) Get() NotificationConfig {
	return h.current.Load().(NotificationConfig)
}

func applyNotificationDefaults(cfg *NotificationConfig, defaults NotificationConfig) {
	if len(cfg.SMSProviders) == 0 {
		cfg.SMSProviders = defaults.SMSProviders
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = defaults.Retry.BaseDelay
	}
	if cfg.Retry.Multiplier <= 0 {
		cfg.Retry.Multiplier = defaults.Retry.Multiplier
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaults.HTTPTimeout
	}
}

func validateNotificationConfig(cfg NotificationConfig) error {
	if len(cfg.SMSProviders) == 0 {
		return errors.New("notification.smsProviders cannot be empty")
	}
	for _, p := range cfg.SMSProviders {
		switch p.Name {
		case "textbelt", "sms77", "smsapi":
		default:
			return errors.New("unknown sms provider " + p.Name)
		}
	}
	return nil
}
