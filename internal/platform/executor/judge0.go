// Package executor runs code on a Judge0 compatible execution service.
package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"daily_judge/internal/common"

	log "github.com/sirupsen/logrus"
)

// Judge0 keeps polling while the status id is at most this value
// (1 In Queue, 2 Processing).
const lastPendingStatus = 2

var (
	ErrExecutionService = fmt.Errorf("%w: execution service", common.ErrServiceUnavailable)
	ErrExecutionTimeout = fmt.Errorf("%w: timed out waiting for result", ErrExecutionService)
)

type Options struct {
	BaseURL        string
	APIKey         string // RapidAPI key
	APIHost        string // RapidAPI host
	AuthToken      string // X-Auth-Token for self-hosted instances
	PollInterval   time.Duration
	MaxPolls       int
	RequestTimeout time.Duration
}

// Run is one program execution: the source, its stdin and the output the
// service may use for its own comparison.
type Run struct {
	SourceCode     string
	Stdin          string
	ExpectedOutput string
}

type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is the decoded outcome of one Run.
type Result struct {
	Token         string
	Status        Status
	Stdout        string
	Stderr        string
	CompileOutput string
	Message       string
	Time          string
	Memory        int
}

type Client struct {
	opts   Options
	http   *http.Client
	base   *url.URL
	logger *log.Entry
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid execution service url %q", opts.BaseURL)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 1500 * time.Millisecond
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 40
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	return &Client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.RequestTimeout},
		base:   base,
		logger: log.WithField("from", "judge0"),
	}, nil
}

// Execute runs every Run strictly one after another and returns the results
// in the same order. Any transport failure or non-2xx response aborts the
// remaining runs.
func (c *Client) Execute(ctx context.Context, languageID int, runs []Run) ([]Result, error) {
	results := make([]Result, 0, len(runs))
	for i, run := range runs {
		token, err := c.submit(ctx, languageID, run)
		if err != nil {
			return nil, fmt.Errorf("submit run %d: %w", i+1, err)
		}
		res, err := c.await(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("await run %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

type submissionRequest struct {
	LanguageID     int    `json:"language_id"`
	SourceCode     string `json:"source_code"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type submissionResponse struct {
	Token         string  `json:"token"`
	Status        *Status `json:"status"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
}

func (c *Client) submit(ctx context.Context, languageID int, run Run) (string, error) {
	body, err := json.Marshal(submissionRequest{
		LanguageID:     languageID,
		SourceCode:     encode(run.SourceCode),
		Stdin:          encode(run.Stdin),
		ExpectedOutput: encode(run.ExpectedOutput),
	})
	if err != nil {
		return "", err
	}

	endpoint := c.endpoint("submissions", url.Values{"base64_encoded": {"true"}, "wait": {"false"}})
	var resp submissionResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: response carried no token", ErrExecutionService)
	}
	return resp.Token, nil
}

func (c *Client) await(ctx context.Context, token string) (Result, error) {
	endpoint := c.endpoint("submissions/"+url.PathEscape(token), url.Values{"base64_encoded": {"true"}})

	for attempt := 1; attempt <= c.opts.MaxPolls; attempt++ {
		var resp submissionResponse
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return Result{}, err
		}
		if resp.Status == nil {
			return Result{}, fmt.Errorf("%w: response carried no status", ErrExecutionService)
		}
		if resp.Status.ID > lastPendingStatus {
			return decodeResult(token, resp)
		}

		c.logger.Debugf("submission %s still %s (poll %d)", token, resp.Status.Description, attempt)
		if attempt == c.opts.MaxPolls {
			break
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(c.opts.PollInterval):
		}
	}
	return Result{}, fmt.Errorf("%w after %d polls (token %s)", ErrExecutionTimeout, c.opts.MaxPolls, token)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, dst any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.APIKey != "" {
		req.Header.Set("x-rapidapi-key", c.opts.APIKey)
		req.Header.Set("x-rapidapi-host", c.opts.APIHost)
	}
	if c.opts.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.opts.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", ErrExecutionService, method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s",
			ErrExecutionService, method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrExecutionService, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	u.RawQuery = query.Encode()
	return u.String()
}

func decodeResult(token string, resp submissionResponse) (Result, error) {
	res := Result{Token: token, Status: *resp.Status}
	fields := []struct {
		src *string
		dst *string
	}{
		{resp.Stdout, &res.Stdout},
		{resp.Stderr, &res.Stderr},
		{resp.CompileOutput, &res.CompileOutput},
		{resp.Message, &res.Message},
	}
	for _, f := range fields {
		text, err := decode(f.src)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrExecutionService, err)
		}
		*f.dst = text
	}
	if resp.Time != nil {
		res.Time = *resp.Time
	}
	if resp.Memory != nil {
		res.Memory = *resp.Memory
	}
	return res, nil
}

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// decode reads a base64 field as UTF-8 text. Judge0 wraps long payloads
// with newlines, which are ignored.
func decode(field *string) (string, error) {
	if field == nil || *field == "" {
		return "", nil
	}
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, *field)
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("decode base64 field: %w", err)
	}
	return string(raw), nil
}
