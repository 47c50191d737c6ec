package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const textbeltURL = "https://textbelt.com/text"

type TextbeltClient struct {
	key    string
	client *http.Client
}

func NewTextbelt(key string, client *http.Client) *TextbeltClient {
	return &TextbeltClient{key: key, client: client}
}

func (c *TextbeltClient) Name() string { return "textbelt" }

func (c *TextbeltClient) Send(ctx context.Context, phone string, message string) error {
	form := url.Values{
		"phone":   {phone},
		"message": {message},
		"key":     {c.key},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, textbeltURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	return nil
}
