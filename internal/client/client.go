package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/chardrv/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/chardrv/internal/shared/id"
	"github.com/GriffinCanCode/chardrv/internal/shared/types"
)

// Config configures a Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second; zero means unlimited.
	RateLimit float64
	// BreakerFailures is how many consecutive failures open the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns a client configuration for a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8000",
		Timeout:         10 * time.Second,
		RetryMax:        3,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Client talks to a chardrv server.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// methodTransport retries only reads. A write whose reply was lost may
// already be stored, and repeating it would store the bytes twice.
type methodTransport struct {
	retry http.RoundTripper
	base  http.RoundTripper
}

func (t *methodTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		return t.retry.RoundTrip(req)
	}
	return t.base.RoundTrip(req)
}

// New creates a client with retries, rate limiting and a circuit breaker.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	restyClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetTransport(&methodTransport{
			retry: &retryablehttp.RoundTripper{Client: retryClient},
			base:  retryClient.HTTPClient.Transport,
		}).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("User-Agent", "chardevctl/1.0")

	breaker := resilience.New("chardrv", resilience.Settings{
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || deviceAnswered(err)
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
	}
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// request builds a rate limited request carrying the trace in ctx.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	headers := make(map[string]string)
	tracing.InjectTraceContext(ctx, headers)

	return c.resty.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetError(&types.ErrorResponse{}), nil
}

// call runs fn through the breaker and converts error replies.
func (c *Client) call(ctx context.Context, fn func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	return resilience.Execute(c.breaker, func() (*resty.Response, error) {
		req, err := c.request(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := fn(req)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, toAPIError(resp)
		}
		return resp, nil
	})
}

func toAPIError(resp *resty.Response) error {
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*types.ErrorResponse); ok && body.Code != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
	}
	return apiErr
}

// Info describes the device.
func (c *Client) Info(ctx context.Context) (*types.DeviceInfo, error) {
	var info types.DeviceInfo
	_, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&info).Get("/device")
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Devices lists every registered device.
func (c *Client) Devices(ctx context.Context) ([]types.DeviceInfo, error) {
	var devs []types.DeviceInfo
	_, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&devs).Get("/devices")
	})
	if err != nil {
		return nil, err
	}
	return devs, nil
}

// Health returns nil when the device is loaded.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/health")
	})
	return err
}

// Open opens a session.
func (c *Client) Open(ctx context.Context) (id.SessionID, error) {
	var out types.OpenResponse
	_, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Post("/sessions")
	})
	if err != nil {
		return "", err
	}
	return id.ParseSessionID(out.SessionID)
}

// Write stores data and returns how much the device accepted.
func (c *Client) Write(ctx context.Context, sid id.SessionID, data []byte) (int, error) {
	return c.WriteN(ctx, sid, data, len(data))
}

// WriteN writes with an explicit count. A count past len(data) faults.
func (c *Client) WriteN(ctx context.Context, sid id.SessionID, data []byte, count int) (int, error) {
	var out types.WriteResponse
	_, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Content-Type", "application/octet-stream").
			SetQueryParam("count", strconv.Itoa(count)).
			SetBody(data).
			SetResult(&out).
			Post("/sessions/" + sid.String() + "/write")
	})
	if err != nil {
		return 0, err
	}
	return out.BytesWritten, nil
}

// Read returns up to count stored bytes. eof is set once the session has
// read everything stored; an empty result alone may just mean count was 0.
func (c *Client) Read(ctx context.Context, sid id.SessionID, count int) (data []byte, eof bool, err error) {
	resp, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetQueryParam("count", strconv.Itoa(count)).
			Get("/sessions/" + sid.String() + "/read")
	})
	if err != nil {
		return nil, false, err
	}
	return resp.Body(), resp.Header().Get(types.HeaderEndOfData) == "true", nil
}

// Release closes a session.
func (c *Client) Release(ctx context.Context, sid id.SessionID) error {
	_, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Delete("/sessions/" + sid.String())
	})
	return err
}

// Dmesg returns the server's kernel log tail.
func (c *Client) Dmesg(ctx context.Context) (string, error) {
	resp, err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/dmesg")
	})
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}
