package resilience

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Errors returned by Client.
var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// StatusError is an upstream response that counts as a failure: any 5xx,
// or 429 Too Many Requests.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func retryableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies the upstream; it names the breaker and the health entry.
	Name string

	// UserAgent is set on every outgoing request when non-empty.
	UserAgent string

	// AttemptTimeout bounds a single HTTP attempt.
	AttemptTimeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	InitialInterval time.Duration
	MaxInterval     time.Duration

	Breaker BreakerConfig

	// Health, when set, records the outcome of every call.
	Health *Registry

	// Transport overrides the default round tripper.
	Transport http.RoundTripper
}

// DefaultClientConfig returns the defaults used for the archive provider.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		AttemptTimeout:  10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Breaker:         DefaultBreakerConfig(name),
	}
}

// WorstCase is the longest a single Do call can take: every attempt timing
// out plus the largest jittered wait before each retry.
func (c ClientConfig) WorstCase() time.Duration {
	defaults := DefaultClientConfig(c.Name)
	attempt := c.AttemptTimeout
	if attempt == 0 {
		attempt = defaults.AttemptTimeout
	}
	wait := c.MaxInterval
	if wait == 0 {
		wait = defaults.MaxInterval
	}
	wait += time.Duration(float64(wait) * backoff.DefaultRandomizationFactor)

	retries := time.Duration(c.MaxRetries) //nolint:gosec // small retry counts
	return (retries+1)*attempt + retries*wait
}

// Client executes HTTP requests through a circuit breaker with retries.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient creates a resilient client.
func NewClient(cfg ClientConfig) *Client {
	defaults := DefaultClientConfig(cfg.Name)
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = defaults.AttemptTimeout
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.Breaker.Name == "" {
		logger := cfg.Breaker.Logger
		cfg.Breaker = defaults.Breaker
		cfg.Breaker.Logger = logger
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.AttemptTimeout,
			Transport: cfg.Transport,
		},
		breaker: newBreaker[*http.Response](cfg.Breaker), //nolint:bodyclose // type parameter
	}
	if cfg.Health != nil {
		cfg.Health.Register(cfg.Name, c)
	}
	return c
}

// Name returns the configured upstream name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Do sends req, retrying network failures, 5xx and 429 with exponential
// backoff. A response that is still failing after the last retry is returned
// with a nil error so the caller can read its body. Requests must have no
// body or a replayable one (GetBody set).
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialInterval
	policy.MaxInterval = c.cfg.MaxInterval
	policy.MaxElapsedTime = 0

	var last *http.Response

	attempt := func() error {
		if last != nil {
			drain(last)
			last = nil
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			out := req.Clone(ctx)
			if c.cfg.UserAgent != "" {
				out.Header.Set("User-Agent", c.cfg.UserAgent)
			}
			r, err := c.http.Do(out)
			if err != nil {
				return nil, err
			}
			if retryableStatus(r.StatusCode) {
				return r, &StatusError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case err != nil:
			last = resp
			return err
		}

		last = resp
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, c.cfg.MaxRetries), ctx))
	if err != nil {
		c.record(err)
		var statusErr *StatusError
		if last != nil && errors.As(err, &statusErr) {
			return last, nil
		}
		if last != nil {
			drain(last)
		}
		return nil, err
	}

	c.record(nil)
	return last, nil
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker counters.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

func (c *Client) record(err error) {
	if c.cfg.Health == nil {
		return
	}
	if err != nil {
		c.cfg.Health.RecordFailure(c.cfg.Name, err)
		return
	}
	c.cfg.Health.RecordSuccess(c.cfg.Name)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
