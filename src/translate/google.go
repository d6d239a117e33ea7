package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// Google talks to the public web translate endpoint used by browser
// extensions. It needs no API key.
type Google struct {
	BaseURL string
	Client  *http.Client
}

func NewGoogle() *Google {
	return &Google{BaseURL: defaultGoogleURL, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "screen-translator/1.0")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	return parseGoogleReply(body)
}

// parseGoogleReply joins the translated segments of a reply shaped like
// [[["訳","src",...],["訳2","src2",...]],null,"en",...].
func parseGoogleReply(body []byte) (string, error) {
	var reply []json.RawMessage
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(reply) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(reply[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected response layout: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("response contained no translation")
	}
	return b.String(), nil
}
