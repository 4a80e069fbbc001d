// Package email sends transactional mail through the Postmark HTTP API:
// magic-link sign-in messages and monthly pay statements.
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mkline/careshift/internal/payroll"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a Postmark client. baseURL is the externally reachable
// address of this server, used to build links in message bodies.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendMagicLink sends a single-use sign-in link.
func (c *Client) SendMagicLink(toEmail, token string) error {
	link := fmt.Sprintf("%s/auth/verify?token=%s", c.baseURL, token)
	textBody := fmt.Sprintf("Click the link below to sign in:\n\n%s\n\nThis link expires in 15 minutes.", link)
	htmlBody := fmt.Sprintf(
		`<p>Click the link below to sign in:</p><p><a href="%s">Sign in to CareShift</a></p><p>This link expires in 15 minutes.</p>`,
		link,
	)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Sign in to CareShift",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

// SendPayStatement emails one caregiver their weekly hours and gross pay for
// a built month.
func (c *Client) SendPayStatement(toEmail string, year int, month time.Month, summary *payroll.CaregiverSummary) error {
	period := fmt.Sprintf("%s %d", month, year)

	var text strings.Builder
	fmt.Fprintf(&text, "Pay statement for %s — %s\n\n", summary.Name, period)
	var html strings.Builder
	fmt.Fprintf(&html, "<p>Pay statement for %s &mdash; %s</p><table><tr><th>Week of</th><th>Hours</th><th>Gross</th></tr>", summary.Name, period)

	for _, wk := range summary.Weeks {
		start := wk.Start.Format("Jan 2")
		fmt.Fprintf(&text, "Week of %s: %d hours, %s\n", start, wk.Hours, payroll.FormatCents(wk.GrossCents))
		fmt.Fprintf(&html, "<tr><td>%s</td><td>%d</td><td>%s</td></tr>", start, wk.Hours, payroll.FormatCents(wk.GrossCents))
	}

	fmt.Fprintf(&text, "\nTotal: %d hours, %s\n", summary.TotalHours, payroll.FormatCents(summary.TotalGrossCents))
	fmt.Fprintf(&html, "<tr><td><strong>Total</strong></td><td><strong>%d</strong></td><td><strong>%s</strong></td></tr></table>",
		summary.TotalHours, payroll.FormatCents(summary.TotalGrossCents))

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  fmt.Sprintf("Your %s pay statement", period),
		HtmlBody: html.String(),
		TextBody: text.String(),
	})
}

func (c *Client) send(msg postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
