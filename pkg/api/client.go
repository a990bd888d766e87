package api

import (
	"context"
	"fmt"
	"time"

	"github.com/codestack/cli/pkg/client"
	"github.com/codestack/cli/pkg/logger"
	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// Client wraps every backend endpoint the front end consumes. Reads that
// anonymous visitors can see go through the public client; everything
// else goes through the secure one.
type Client struct {
	gw *client.Gateway
}

// New creates an API client over a gateway.
func New(gw *client.Gateway) *Client {
	return &Client{gw: gw}
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *client.Gateway {
	return c.gw
}

type call struct {
	method string
	path   string
	query  map[string]string
	body   interface{}
}

// do sends one request and decodes a successful body into result.
func (c *Client) do(ctx context.Context, rc *resty.Client, in call, result interface{}) error {
	req := rc.R().SetContext(ctx)
	if len(in.query) > 0 {
		req.SetQueryParams(in.query)
	}
	if in.body != nil {
		raw, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", in.method, in.path, err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(raw)
	}

	resp, err := req.Execute(in.method, in.path)
	if err := CheckResponse(resp, err); err != nil {
		logger.Debug("Request failed", "method", in.method, "path", in.path, "error", err)
		return err
	}

	if result == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("decode %s %s: %w", in.method, in.path, err)
	}
	return nil
}

func (c *Client) public(ctx context.Context, in call, result interface{}) error {
	return c.do(ctx, c.gw.Public(), in, result)
}

func (c *Client) secure(ctx context.Context, in call, result interface{}) error {
	return c.do(ctx, c.gw.Secure(), in, result)
}

// now is the timestamp format the backend stores for createdAt fields.
var now = func() string {
	return time.Now().UTC().Format(time.RFC3339)
}
