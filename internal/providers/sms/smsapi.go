package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const smsapiURL = "https://api.smsapi.com/sms.do"

type SMSAPIClient struct {
	token  string
	client *http.Client
}

func NewSMSAPI(token string, client *http.Client) *SMSAPIClient {
	return &SMSAPIClient{token: token, client: client}
}

func (c *SMSAPIClient) Name() string { return "smsapi" }

func (c *SMSAPIClient) Send(ctx context.Context, phone string, message string) error {
	form := url.Values{
		"to":      {phone},
		"message": {message},
		"format":  {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, smsapiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		Count   int    `json:"count"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Count == 0 {
		return fmt.Errorf("smsapi rejected message: %s", result.Message)
	}
	return nil
}
