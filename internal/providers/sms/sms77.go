package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const sms77URL = "https://gateway.sms77.io/api/sms"

type SMS77Client struct {
	key    string
	client *http.Client
}

func NewSMS77(key string, client *http.Client) *SMS77Client {
	return &SMS77Client{key: key, client: client}
}

func (c *SMS77Client) Name() string { return "sms77" }

func (c *SMS77Client) Send(ctx context.Context, phone string, message string) error {
	form := url.Values{
		"to":   {phone},
		"text": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sms77URL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-API-Key", c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return err
	}

	// The gateway answers with a numeric status code in the body;
	// 100 means accepted.
	if code := strings.TrimSpace(string(body)); !strings.HasPrefix(code, "100") {
		return fmt.Errorf("sms77 rejected message: %s", code)
	}
	return nil
}
