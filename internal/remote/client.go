package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	models "github.com/slobbe/fruit-jam-store/internal/types"
)

const gitHubAPIHost = "api.github.com"

type Options struct {
	// Timeout bounds Get. Downloads are bounded only by their context.
	Timeout     time.Duration
	UserAgent   string
	GitHubToken string
}

// Client is the single HTTP transport. It never retries: a failed request
// is reported to the caller, which decides whether to degrade or give up.
type Client struct {
	resty   *resty.Client
	timeout time.Duration
	token   string
	logger  *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New().
		SetRetryCount(0).
		SetLogger(zapLogger{logger.Sugar()})
	if agent := strings.TrimSpace(opts.UserAgent); agent != "" {
		restyClient.SetHeader("User-Agent", agent)
	}

	return &Client{
		resty:   restyClient,
		timeout: opts.Timeout,
		token:   strings.TrimSpace(opts.GitHubToken),
		logger:  logger,
	}
}

// Get fetches rawURL and returns the whole body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.request(ctx, rawURL).Get(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if err := checkStatus(rawURL, resp.StatusCode()); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched", zap.String("url", rawURL), zap.Int("bytes", len(resp.Body())), zap.Duration("took", resp.Time()))
	return resp.Body(), nil
}

// Download streams rawURL into w. When progress is non-nil it is called
// once with the advertised length (-1 if unknown) and the returned writer
// receives a copy of every chunk.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer, progress func(total int64) io.Writer) (int64, error) {
	resp, err := c.request(ctx, rawURL).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return 0, &FetchError{URL: rawURL, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if err := checkStatus(rawURL, resp.StatusCode()); err != nil {
		return 0, err
	}

	if progress != nil {
		if pw := progress(resp.RawResponse.ContentLength); pw != nil {
			w = io.MultiWriter(w, pw)
		}
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, &FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Err: err}
	}

	c.logger.Debug("downloaded", zap.String("url", rawURL), zap.Int64("bytes", n))
	return n, nil
}

func (c *Client) request(ctx context.Context, rawURL string) *resty.Request {
	req := c.resty.R().SetContext(ctx)
	if isGitHubAPI(rawURL) {
		req.SetHeader("Accept", "application/vnd.github+json")
		if c.token != "" {
			req.SetAuthToken(c.token)
		}
	}
	return req
}

func isGitHubAPI(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), gitHubAPIHost)
}

func checkStatus(rawURL string, status int) error {
	if status < 200 || status > 299 {
		return &FetchError{URL: rawURL, StatusCode: status}
	}
	return nil
}

// FetchError reports a failed transfer. It matches models.ErrFetchFailed,
// and additionally models.ErrNotFound for HTTP 404.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case models.ErrFetchFailed:
		return true
	case models.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsNotFound reports whether err is a 404 from the remote end.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

// zapLogger adapts zap to resty's logger so transport chatter goes through
// the same sink as everything else.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, v ...interface{}) { l.s.Debugf("resty: "+format, v...) }
func (l zapLogger) Warnf(format string, v ...interface{})  { l.s.Debugf("resty: "+format, v...) }
func (l zapLogger) Debugf(format string, v ...interface{}) { l.s.Debugf("resty: "+format, v...) }
