// Package hosted is the client for the hosted backend: PostgREST for
// tables and GoTrue for accounts. Realtime channels are served from a
// local registry fed by inserts made through this client.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/nexus/internal/query"
	"github.com/mesh-intelligence/nexus/internal/realtime"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Path prefixes of the hosted services.
const (
	restPath = "/rest/v1/"
	authPath = "/auth/v1/"
)

// Options configures a Client.
type Options struct {
	Config     types.HostedConfig
	Tables     map[types.TableName]bool
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements types.Client against the hosted backend.
type Client struct {
	base    *url.URL
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	tables  map[types.TableName]bool
	rt      *realtime.Registry
	auth    *authClient
	log     *zap.Logger
	closed  atomic.Bool
}

var _ types.Client = (*Client)(nil)

// New returns a Client for opts. The base URL must be absolute.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.Config.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid hosted url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid hosted url %q: scheme and host are required", opts.Config.URL)
	}

	c := &Client{
		base:    base,
		apiKey:  opts.Config.APIKey,
		http:    opts.HTTPClient,
		limiter: rate.NewLimiter(rate.Inf, 1),
		tables:  opts.Tables,
		log:     opts.Logger,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.http == nil {
		timeout := opts.Config.Timeout
		if timeout <= 0 {
			timeout = types.DefaultHostedTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if opts.Config.RateLimit > 0 {
		burst := int(opts.Config.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.Config.RateLimit), burst)
	}
	if c.tables == nil {
		c.tables = types.Config{}.Tables()
	}
	c.rt = realtime.NewRegistry(c.log.Named("realtime"))
	c.auth = &authClient{c: c}
	return c, nil
}

// From starts a PostgREST query against table.
func (c *Client) From(table types.TableName) types.Query {
	if c.closed.Load() {
		return query.Failed(types.ErrClientClosed)
	}
	return &remoteQuery{c: c, table: table, op: opSelect}
}

// Channel creates a channel on the local registry.
func (c *Client) Channel(name string) types.Channel {
	return c.rt.Channel(name)
}

// RemoveChannel unsubscribes ch.
func (c *Client) RemoveChannel(ch types.Channel) error {
	if ch != nil {
		ch.Unsubscribe()
	}
	return nil
}

// Auth returns the GoTrue client.
func (c *Client) Auth() types.Auth {
	return c.auth
}

// Close releases idle connections. Idempotent.
func (c *Client) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.http.CloseIdleConnections()
	}
	return nil
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	bearer  string
	headers map[string]string
}

// do sends req and returns the response body. Non-2xx responses become a
// *types.Error carrying the server's message.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	if c.closed.Load() {
		return nil, types.ErrClientClosed
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + req.path
	u.RawQuery = req.query.Encode()

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	bearer := req.bearer
	if bearer == "" {
		bearer = c.apiKey
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	c.log.Debug("hosted request", zap.String("method", req.method), zap.String("path", req.path))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling hosted backend: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading hosted response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug("hosted request failed", zap.Int("status", resp.StatusCode), zap.ByteString("body", data))
		return nil, remoteError(resp.StatusCode, data)
	}
	return data, nil
}

// knownMessages maps server messages onto the local error kinds so callers
// can match the same sentinels in both modes.
var knownMessages = map[string]types.ErrorKind{
	types.ErrDuplicateEmail.Message:     types.KindDuplicateEmail,
	types.ErrInvalidCredentials.Message: types.KindInvalidCredentials,
	types.ErrUserNotFound.Message:       types.KindUserNotFound,
}

// PostgREST reports "no rows for single()" with this code.
const pgrstNoRows = "PGRST116"

func remoteError(status int, body []byte) error {
	var payload struct {
		Code             string `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	for _, alt := range []string{payload.Msg, payload.ErrorDescription, payload.Error} {
		if msg == "" {
			msg = alt
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("%s: %s", types.ErrRemote.Message, http.StatusText(status))
	}

	kind := types.KindRemote
	if payload.Code == pgrstNoRows {
		kind = types.KindNoRows
		msg = types.ErrNoRows.Message
	} else if k, ok := knownMessages[msg]; ok {
		kind = k
	}
	return &types.Error{Kind: kind, Message: msg, Status: status}
}
