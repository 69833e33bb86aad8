package judge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"codearena/internal/common"
)

// ErrJudgeClient marks transport failures and malformed judge server
// responses. The dispatcher maps it to a SystemError verdict; it is never a
// legitimate judging outcome.
var ErrJudgeClient = errors.New("judge client error")

// CompileFailure is returned by Judge when the submission failed to compile.
// Output carries the compiler diagnostics as reported by the judge server.
type CompileFailure struct {
	Output string
}

func (e *CompileFailure) Error() string {
	return "compilation failed: " + e.Output
}

const tokenHeader = "X-Judge-Server-Token"

// Client is a synchronous, stateless wrapper around the judge server API.
// The shared token is sha256-hashed once at construction; the plaintext is
// never sent on the wire.
type Client struct {
	baseURL           string
	hashedToken       string
	httpClient        *http.Client
	transportOverhead time.Duration
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTransportOverhead sets the allowance added to max_cpu_time when
// computing the judge request deadline. It must keep the deadline strictly
// above the sandbox's own execution ceiling.
func WithTransportOverhead(d time.Duration) Option {
	return func(c *Client) {
		c.transportOverhead = d
	}
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	sum := sha256.Sum256([]byte(token))
	c := &Client{
		baseURL:           baseURL,
		hashedToken:       hex.EncodeToString(sum[:]),
		httpClient:        &http.Client{},
		transportOverhead: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InlineTestCase is a test case shipped inside the request instead of being
// resolved from a stored bundle.
type InlineTestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// JudgeRequest mirrors the judge server wire contract bit for bit.
type JudgeRequest struct {
	LanguageConfig   LanguageConfig    `json:"language_config"`
	Src              string            `json:"src"`
	MaxCPUTime       int               `json:"max_cpu_time"` // ms
	MaxMemory        int               `json:"max_memory"`   // bytes
	TestCaseID       *string           `json:"test_case_id"`
	TestCase         []InlineTestCase  `json:"test_case"`
	SPJVersion       *string           `json:"spj_version"`
	SPJConfig        *SPJConfig        `json:"spj_config"`
	SPJCompileConfig *SPJCompileConfig `json:"spj_compile_config"`
	SPJSrc           *string           `json:"spj_src"`
	Output           bool              `json:"output"`
}

// CaseOutcome is one per-test-case result from the judge server. TestCase is
// the index as a string, as the server reports it.
type CaseOutcome struct {
	TestCase string  `json:"test_case"`
	Result   int     `json:"result"`
	CPUTime  int     `json:"cpu_time"` // ms
	Memory   int     `json:"memory"`   // bytes
	Output   *string `json:"output,omitempty"`
}

type wireResponse struct {
	Err  *string         `json:"err"`
	Data json.RawMessage `json:"data"`
}

// Judge runs one submission against its test bundle. Exactly one of
// TestCaseID and TestCase must be set; supplying both or neither is a caller
// error. The request deadline is max_cpu_time plus the transport overhead so
// a legitimately slow sandbox run is never abandoned early.
func (c *Client) Judge(ctx context.Context, req JudgeRequest) ([]CaseOutcome, error) {
	hasBundle := req.TestCaseID != nil && *req.TestCaseID != ""
	hasInline := len(req.TestCase) > 0
	if hasBundle == hasInline {
		return nil, fmt.Errorf("exactly one of test_case_id and test_case must be set: %w", common.ErrBadRequest)
	}

	timeout := time.Duration(req.MaxCPUTime)*time.Millisecond + c.transportOverhead
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.post(ctx, "/judge", req)
	if err != nil {
		return nil, err
	}

	if resp.Err != nil && *resp.Err != "" {
		var detail string
		if err := json.Unmarshal(resp.Data, &detail); err != nil {
			detail = string(resp.Data)
		}
		if *resp.Err == "CompileError" || *resp.Err == "Compile Error" {
			return nil, &CompileFailure{Output: detail}
		}
		return nil, fmt.Errorf("judge server replied %s: %s: %w", *resp.Err, detail, ErrJudgeClient)
	}

	var outcomes []CaseOutcome
	if err := json.Unmarshal(resp.Data, &outcomes); err != nil {
		return nil, fmt.Errorf("malformed judge response data: %v: %w", err, ErrJudgeClient)
	}
	return outcomes, nil
}

// Ping checks judge server liveness. Operational only; never part of the
// judging path.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.post(ctx, "/ping", nil)
	if err != nil {
		return err
	}
	if resp.Err != nil && *resp.Err != "" {
		return fmt.Errorf("judge server ping replied %s: %w", *resp.Err, ErrJudgeClient)
	}
	return nil
}

type compileSPJRequest struct {
	Src              string           `json:"src"`
	SPJVersion       string           `json:"spj_version"`
	SPJCompileConfig SPJCompileConfig `json:"spj_compile_config"`
}

// CompileSPJ compiles a special judge source on the judge server so later
// judge calls can reference it by version.
func (c *Client) CompileSPJ(ctx context.Context, src, spjVersion string, compileConfig SPJCompileConfig) error {
	resp, err := c.post(ctx, "/compile_spj", compileSPJRequest{
		Src:              src,
		SPJVersion:       spjVersion,
		SPJCompileConfig: compileConfig,
	})
	if err != nil {
		return err
	}
	if resp.Err != nil && *resp.Err != "" {
		var detail string
		if err := json.Unmarshal(resp.Data, &detail); err != nil {
			detail = string(resp.Data)
		}
		return fmt.Errorf("spj compilation failed %s: %s: %w", *resp.Err, detail, ErrJudgeClient)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*wireResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal judge request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(tokenHeader, c.hashedToken)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("judge server unreachable: %v: %w", err, ErrJudgeClient)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read judge response: %v: %w", err, ErrJudgeClient)
	}

	var resp wireResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("non-JSON judge response (status %d): %w", httpResp.StatusCode, ErrJudgeClient)
	}
	return &resp, nil
}
