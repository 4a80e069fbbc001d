package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkline/careshift/internal/payroll"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-token", "noreply@example.com", "https://careshift.test", WithHTTPClient(server.Client()))
	client.apiURL = server.URL
	return client
}

func TestSendMagicLink(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	})

	if err := client.SendMagicLink("alice@example.com", "abc123"); err != nil {
		t.Fatalf("send magic link: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if received.Subject != "Sign in to CareShift" {
		t.Errorf("Subject = %q, want %q", received.Subject, "Sign in to CareShift")
	}
	if !strings.Contains(received.TextBody, "https://careshift.test/auth/verify?token=abc123") {
		t.Errorf("text body missing verify link: %q", received.TextBody)
	}
}

func TestSendPayStatement(t *testing.T) {
	var received postmarkEmail

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	})

	summary := &payroll.CaregiverSummary{
		CaregiverID:  1,
		Name:         "Alice",
		IsPaid:       true,
		PayRateCents: 2000,
		Weeks: []payroll.Week{
			{Start: time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), Hours: 30, GrossCents: 60000},
			{Start: time.Date(2024, 12, 9, 0, 0, 0, 0, time.UTC), Hours: 24, GrossCents: 48000},
		},
		TotalHours:      54,
		TotalGrossCents: 108000,
	}

	if err := client.SendPayStatement("alice@example.com", 2024, time.December, summary); err != nil {
		t.Fatalf("send pay statement: %v", err)
	}

	if received.Subject != "Your December 2024 pay statement" {
		t.Errorf("Subject = %q, want December statement subject", received.Subject)
	}
	if !strings.Contains(received.TextBody, "Week of Dec 2: 30 hours, $600.00") {
		t.Errorf("text body missing week row: %q", received.TextBody)
	}
	if !strings.Contains(received.TextBody, "Total: 54 hours, $1080.00") {
		t.Errorf("text body missing total: %q", received.TextBody)
	}
}

func TestSendNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "https://careshift.test")

	if err := client.SendMagicLink("alice@example.com", "abc123"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendAPIError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	if err := client.SendMagicLink("alice@example.com", "abc123"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient("token", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = true")
	}
	if NewClient("", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = false")
	}
}
