package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/amelia751/cloudly/internal/api/respond"
)

const requestTimeout = 30 * time.Second

// apiClient is a thin resty wrapper over the Cloudly HTTP API.
type apiClient struct {
	http *resty.Client
}

func newAPIClient(baseURL, bearer string) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")
	if bearer != "" {
		c.SetAuthToken(bearer)
	}
	return &apiClient{http: c}
}

// call sends body (if any) as JSON and returns the raw response body. Non-2xx
// replies surface the service's error message.
func (c *apiClient) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if resp.IsError() {
		var e respond.ErrorResponse
		if json.Unmarshal(resp.Body(), &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode(), e.Error)
		}
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode())
	}
	return resp.Body(), nil
}

// printJSON pretty-prints raw to out.
func printJSON(out io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, werr := fmt.Fprintln(out, string(raw))
		return werr
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
