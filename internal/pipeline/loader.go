package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/ppiankov/claimtriage/internal/util"
)

// Submission is a transcript with an optional caller-supplied claim ID
type Submission struct {
	ClaimID string `json:"claim_id,omitempty"`
	model.TranscriptRecord
}

// Loader reads submissions from files, stdin or HTTP(S) URLs
type Loader struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	language   string // Language of plain-text input
	stdin      io.Reader
}

// NewLoader creates a loader. Plain-text input is tagged with language.
func NewLoader(timeout time.Duration, maxBytes int64, language string, proxy util.Proxy) *Loader {
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}

	return &Loader{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: proxy.Transport(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: "claimtriage/1.0",
		maxBytes:  maxBytes,
		language:  language,
		stdin:     os.Stdin,
	}
}

// Load reads submissions from source: "-" for stdin, an http(s) URL, or a file path
func (l *Loader) Load(ctx context.Context, source string) ([]Submission, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case source == "-":
		data, err = io.ReadAll(io.LimitReader(l.stdin, l.maxBytes))
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		data, err = l.FetchWithRetry(ctx, source)
	default:
		data, err = l.readFile(source)
	}
	if err != nil {
		return nil, err
	}

	return ParseSubmissions(data, l.language)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

const fetchAttempts = 3

// FetchWithRetry downloads source, retrying 5xx and 429 responses with backoff
func (l *Loader) FetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}

		data, retryable, err := l.fetch(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "application/json, application/x-ndjson, text/plain;q=0.9")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

// ParseSubmissions accepts a JSON object, a JSON array, JSON Lines, or plain
// narrative text (one submission tagged with language)
func ParseSubmissions(data []byte, language string) ([]Submission, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	switch trimmed[0] {
	case '[':
		var subs []Submission
		if err := json.Unmarshal(trimmed, &subs); err != nil {
			return nil, fmt.Errorf("parse JSON array: %w", err)
		}
		return subs, nil
	case '{':
		var single Submission
		if err := json.Unmarshal(trimmed, &single); err == nil {
			return []Submission{single}, nil
		}
		return parseLines(trimmed)
	default:
		return []Submission{{
			TranscriptRecord: model.TranscriptRecord{
				RawText:         string(trimmed),
				Language:        language,
				ConfidenceScore: 1,
			},
		}}, nil
	}
}

func parseLines(data []byte) ([]Submission, error) {
	var subs []Submission

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var s Submission
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		subs = append(subs, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return subs, nil
}
