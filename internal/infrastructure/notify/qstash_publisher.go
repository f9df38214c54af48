package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"github.com/riskibarqy/castaway-league/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

type QStashConfig struct {
	BaseURL       string
	Token         string
	TargetBaseURL string
	// TargetPath is joined with the event name, e.g. /hooks/events/draft_completed.
	TargetPath     string
	Retries        int
	ForwardToken   string
	Timeout        time.Duration
	CircuitBreaker resilience.Config
}

// QStashPublisher forwards events to a webhook through the Upstash QStash
// publish API. The event id doubles as the deduplication id.
type QStashPublisher struct {
	client        *http.Client
	baseURL       string
	token         string
	targetBaseURL string
	targetPath    string
	retries       int
	forwardToken  string
	logger        *logging.Logger
	breaker       *resilience.Breaker
}

func NewQStashPublisher(cfg QStashConfig, logger *logging.Logger) (*QStashPublisher, error) {
	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(cfg.TargetBaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	targetPath := "/" + strings.Trim(strings.TrimSpace(cfg.TargetPath), "/")
	if targetPath == "/" {
		targetPath = "/hooks/events"
	}

	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "qstash " + r.Method
		}),
	)

	return &QStashPublisher{
		client:        &http.Client{Timeout: timeout, Transport: transport},
		baseURL:       baseURL,
		token:         strings.TrimSpace(cfg.Token),
		targetBaseURL: targetBaseURL,
		targetPath:    targetPath,
		retries:       cfg.Retries,
		forwardToken:  strings.TrimSpace(cfg.ForwardToken),
		logger:        logger.Named("qstash"),
		breaker:       resilience.NewBreaker(cfg.CircuitBreaker),
	}, nil
}

func (p *QStashPublisher) Publish(ctx context.Context, evt event.Event) error {
	if strings.TrimSpace(string(evt.Name)) == "" {
		return crerr.New("event name is required")
	}

	err := p.breaker.Do(func() error {
		return p.publish(ctx, evt)
	}, func(err error) bool {
		return errors.Is(err, errQStashTransient)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected event", "event", evt.Name, "state", p.breaker.State())
		return fmt.Errorf("qstash is temporarily unavailable: %w", err)
	}
	return err
}

func (p *QStashPublisher) publish(ctx context.Context, evt event.Event) error {
	path := p.targetPath + "/" + url.PathEscape(string(evt.Name))
	targetURL := p.targetBaseURL + path
	publishURL := p.baseURL + "/v2/publish/" + targetURL

	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)
	raw, err := sonic.Marshal(evt)
	if err != nil {
		return crerr.Wrap(err, "marshal event payload")
	}
	_, _ = body.Write(raw)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", publishURL),
			attribute.String("qstash.target_url", targetURL),
			attribute.String("event.name", string(evt.Name)),
			attribute.String("event.id", evt.ID),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request",
		"event", evt.Name,
		"curl_preview", buildCurlPreview(publishURL, p.retries, evt.ID, truncateForLog(body.String(), 4096), p.forwardToken != ""),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(body.String()))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if evt.ID != "" {
		req.Header.Set("Upstash-Deduplication-Id", evt.ID)
	}
	if p.forwardToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.forwardToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish event=%s target_url=%s: %v", errQStashTransient, evt.Name, targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: publish event=%s status=%d body=%s",
				errQStashTransient, evt.Name, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return fmt.Errorf("publish event=%s status=%d body=%s", evt.Name, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	p.logger.InfoContext(ctx, "event forwarded", "event", evt.Name, "event_id", evt.ID, "league_id", evt.LeagueID)
	return nil
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// buildCurlPreview renders the request with secrets masked.
func buildCurlPreview(publishURL string, retries int, dedupID, body string, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	header := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	header("Authorization: Bearer ***")
	header("Content-Type: application/json")
	if retries > 0 {
		header("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if dedupID != "" {
		header("Upstash-Deduplication-Id: " + dedupID)
	}
	if withForwardToken {
		header("Upstash-Forward-X-Internal-Job-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
