// Package sms sends invitation texts through an ordered chain of
// third-party gateways, falling through to the next provider on any
// failure.
package sms

import (
	"context"
	"errors"
)

type Provider interface {
	Name() string
	Send(ctx context.Context, phone string, message string) error
}

var ErrAllProvidersFailed = errors.New("all sms providers failed")

type NoOpProvider struct{}

func (p *NoOpProvider) Name() string { return "noop" }

func (p *NoOpProvider) Send(ctx context.Context, phone string, message string) error {
	return nil
}
