// Package gemini is a minimal client for the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gemini-2.0-flash"

	maxResponseSize = 1 << 20
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("gemini api key not configured")

// APIError is a non-200 answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// Config holds connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client sends single-turn prompts to a Gemini model.
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	model   string
}

// NewClient creates a Client whose transport is traced and metered with the
// given providers.
func NewClient(cfg Config, tp trace.TracerProvider, mp metric.MeterProvider) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(tp),
				otelhttp.WithMeterProvider(mp),
			),
		},
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the first candidate. The request is not retried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encodeRequest(prompt)))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp, body)
	}

	text, err := decodeText(body)
	if err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return text, nil
}

// encodeRequest builds {"contents":[{"role":"user","parts":[{"text":...}]}]}.
func encodeRequest(prompt string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("contents", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("role", func(e *jx.Encoder) { e.Str("user") })
					e.Field("parts", func(e *jx.Encoder) {
						e.Arr(func(e *jx.Encoder) {
							e.Obj(func(e *jx.Encoder) {
								e.Field("text", func(e *jx.Encoder) { e.Str(prompt) })
							})
						})
					})
				})
			})
		})
	})
	return e.Bytes()
}

// decodeText extracts candidates[0].content.parts[*].text.
func decodeText(body []byte) (string, error) {
	var (
		sb    strings.Builder
		index int
	)
	err := jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "candidates" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			defer func() { index++ }()
			if index > 0 {
				return d.Skip()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "content" {
					return d.Skip()
				}
				return decodeContent(d, &sb)
			})
		})
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func decodeContent(d *jx.Decoder, sb *strings.Builder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "parts" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "text" {
					return d.Skip()
				}
				s, err := d.Str()
				if err != nil {
					return err
				}
				sb.WriteString(s)
				return nil
			})
		})
	})
}

// decodeError maps the {"error":{"code","message","status"}} envelope to an
// APIError, falling back to the raw body when it does not parse.
func decodeError(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	err := jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "error" {
			return d.Skip()
		}
		return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			switch string(key) {
			case "message":
				s, err := d.Str()
				apiErr.Message = s
				return err
			case "status":
				s, err := d.Str()
				if s != "" {
					apiErr.Status = s
				}
				return err
			default:
				return d.Skip()
			}
		})
	})
	if err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
