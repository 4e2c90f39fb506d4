package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/devsque/codegate/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: "webhook"},
		Webhook: coreconfig.WebhookConfig{
			URL:         "https://bot.example.com/tg",
			Listen:      "0.0.0.0",
			Port:        8443,
			SecretToken: "s3cret",
		},
	}
	p, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.Webhook)
	if !ok {
		t.Fatal("expected webhook poller")
	}
	if p.Listen != "0.0.0.0:8443" {
		t.Fatalf("listen = %q", p.Listen)
	}
	if p.SecretToken != "s3cret" {
		t.Fatalf("secret token not propagated")
	}
	if p.Endpoint == nil || p.Endpoint.PublicURL != "https://bot.example.com/tg" {
		t.Fatalf("unexpected endpoint: %+v", p.Endpoint)
	}
}

func TestBuildPollerLongpoll(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok {
		t.Fatal("expected long poller")
	}
	if p.Timeout != defaultLongPollTimeout {
		t.Fatalf("timeout = %s, want default", p.Timeout)
	}
	p, _ = BuildPoller(PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 25}).(*tele.LongPoller)
	if p.Timeout != 25*time.Second {
		t.Fatalf("timeout = %s, want 25s", p.Timeout)
	}
}

func TestHTTPClientOutlivesLongPoll(t *testing.T) {
	if got := BuildHTTPClient(0).Timeout; got != minClientTimeout {
		t.Fatalf("timeout = %v, want %v", got, minClientTimeout)
	}
	if got := BuildHTTPClient(90 * time.Second).Timeout; got != 90*time.Second+pollSlack {
		t.Fatalf("timeout = %v", got)
	}
}
