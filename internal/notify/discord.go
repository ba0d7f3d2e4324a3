package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Thumbnail   *discordThumbnail   `json:"thumbnail,omitempty"`
	Footer      *discordFooter      `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordThumbnail struct {
	URL string `json:"url"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Send renders the message as one webhook payload: a summary embed
// followed by one embed per detail block. The batcher caps the detail
// count, so the payload always fits Discord's per-message embed limit.
func (d *DiscordNotifier) Send(ctx context.Context, msg Message) error {
	embeds := make([]discordEmbed, 0, len(msg.Details)+1)

	summary := discordEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	if !msg.Timestamp.IsZero() {
		summary.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
	}
	if msg.Footer != "" {
		summary.Footer = &discordFooter{Text: msg.Footer}
	}
	embeds = append(embeds, summary)

	for i := range msg.Details {
		embeds = append(embeds, buildDetailEmbed(&msg.Details[i], msg.Color))
	}

	return d.post(ctx, discordWebhookPayload{Embeds: embeds})
}

func buildDetailEmbed(det *Detail, color int) discordEmbed {
	embed := discordEmbed{
		Title: det.Title,
		URL:   det.URL,
		Color: color,
	}

	if det.OldStock != nil {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:   "Stock Change",
			Value:  fmt.Sprintf("%d → %d", *det.OldStock, det.Stock),
			Inline: true,
		})
	}

	embed.Fields = append(embed.Fields, discordEmbedField{
		Name:   "Stock",
		Value:  fmt.Sprintf("**%d** available", det.Stock),
		Inline: true,
	})

	if det.Price != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:   "Price",
			Value:  det.Price,
			Inline: true,
		})
	}

	if det.Thumbnail != "" {
		embed.Thumbnail = &discordThumbnail{URL: det.Thumbnail}
	}

	return embed
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
