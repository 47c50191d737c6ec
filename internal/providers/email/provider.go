package email

import "context"

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string, textBody string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string, textBody string) error {
	return nil
}
