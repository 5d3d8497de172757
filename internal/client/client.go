package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"apidiff/internal/config"
	"apidiff/internal/model"
)

// Client issues rate-limited HTTP calls against the endpoints under
// comparison. Every call acquires the shared limiter before touching the
// network.
type Client struct {
	hc      *http.Client
	limiter Limiter
}

func New(limiter Limiter, timeout time.Duration) *Client {
	return &Client{
		hc:      &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Call fetches the endpoint for one case. Network failures, non-2xx
// statuses and non-JSON bodies are reported in the result, not returned, so
// the orchestrator can continue with the remaining cases.
func (c *Client) Call(ctx context.Context, api config.APIConfig, tc model.Case) model.CallResult {
	if err := c.limiter.Take(ctx); err != nil {
		return errResult("rate limiter: %v", err)
	}

	req, body, err := c.buildRequest(ctx, api, tc)
	if err != nil {
		return errResult("build request: %v", err)
	}
	log.Debug(toCurl(req, body))

	resp, err := c.hc.Do(req)
	if err != nil {
		return errResult("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errResult("read response: %v", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errResult("unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return errResult("unsupported content type: %s", truncate(string(raw), 200))
	}
	return model.CallResult{OK: true, Body: parsed, Raw: string(raw)}
}

// buildRequest substitutes case parameters into {name} placeholders in the
// URL path; the rest go into the query string for GET, or a JSON body for
// any other method.
func (c *Client) buildRequest(ctx context.Context, api config.APIConfig, tc model.Case) (*http.Request, string, error) {
	method := strings.ToUpper(api.Method)
	if method == "" {
		method = http.MethodGet
	}

	target := api.URL
	rest := make(map[string]string, len(tc))
	for k, v := range tc {
		placeholder := "{" + k + "}"
		if strings.Contains(target, placeholder) {
			target = strings.ReplaceAll(target, placeholder, url.PathEscape(v))
			continue
		}
		rest[k] = v
	}

	var req *http.Request
	var err error
	body := ""
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, "", err
		}
		q := req.URL.Query()
		for k, v := range rest {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	} else {
		payload, merr := json.Marshal(rest)
		if merr != nil {
			return nil, "", merr
		}
		body = string(payload)
		req, err = http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range api.Headers {
		req.Header.Set(k, v)
	}
	return req, body, nil
}

func errResult(format string, args ...any) model.CallResult {
	return model.CallResult{Detail: fmt.Sprintf(format, args...)}
}

// toCurl renders the request as a curl command for debug logging.
func toCurl(req *http.Request, body string) string {
	cmd := fmt.Sprintf("curl -X %s", req.Method)
	for key, values := range req.Header {
		cmd += fmt.Sprintf(" -H '%s: %s'", key, values[0])
	}
	if body != "" {
		cmd += fmt.Sprintf(" -d '%s'", body)
	}
	cmd += fmt.Sprintf(" '%s'", req.URL.String())
	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
