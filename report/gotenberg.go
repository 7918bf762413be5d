// Package report renders printable documents through an external Gotenberg
// service.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Renderer turns an HTML document into a PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Page describes the printed sheet in inches, as Gotenberg expects.
type Page struct {
	Width, Height float64
	Margin        float64
	Landscape     bool
}

// A4 is the default sheet for balance reports.
var A4 = Page{Width: 8.27, Height: 11.7, Margin: 0.4}

func (p Page) fields() map[string]string {
	inches := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return map[string]string{
		"paperWidth":      inches(p.Width),
		"paperHeight":     inches(p.Height),
		"marginTop":       inches(p.Margin),
		"marginBottom":    inches(p.Margin),
		"marginLeft":      inches(p.Margin),
		"marginRight":     inches(p.Margin),
		"landscape":       strconv.FormatBool(p.Landscape),
		"printBackground": "true",
	}
}

// Client talks to a Gotenberg instance.
type Client struct {
	baseURL string
	http    *http.Client
	page    Page
}

// NewClient builds a Client printing on A4. A zero timeout means 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		page:    A4,
	}
}

// WithPage returns a copy of c printing on page.
func (c *Client) WithPage(page Page) *Client {
	clone := *c
	clone.page = page
	return &clone
}

// Ping reports whether Gotenberg answers its health route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// RenderHTML converts a self-contained HTML page to PDF with Chromium.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	file, err := form.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(file, html); err != nil {
		return nil, err
	}
	for name, value := range c.page.fields() {
		if err := form.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return c.do(req)
}

// do sends req and returns the body, turning 4xx and 5xx into errors that
// quote the start of Gotenberg's message.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotenberg %s: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gotenberg %s: status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return io.ReadAll(resp.Body)
}
