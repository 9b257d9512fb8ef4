// Package sheets talks to the spreadsheet-backed web app that stores
// submissions. The endpoint accepts a single POST whose JSON body carries
// an action discriminator.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/observability"
)

// ConnectivityMessage is shown when the endpoint could not be reached.
const ConnectivityMessage = "การเชื่อมต่อล้มเหลว\n\nสาเหตุที่เป็นไปได้:\n1. อินเทอร์เน็ตไม่เสถียร\n2. สคริปต์ Google Sheet ยังไม่อัปเดต\n3. ไฟล์ใหญ่เกินไป"

// GenericFailureMessage is used when a failure carries no detail.
const GenericFailureMessage = "เกิดข้อผิดพลาดในการเชื่อมต่อ"

const contentType = "text/plain;charset=utf-8"

// Config describes the remote endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts requests to the spreadsheet endpoint. It never returns Go
// errors: every failure is folded into an error APIResponse.
type Client struct {
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// New constructs a client for the configured endpoint.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid script url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, fmt.Errorf("script url must be an absolute http(s) url")
	}

	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With().Str("component", "sheets_client").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/edusubmit-api/pkg/sheets"),
		now:      time.Now,
	}, nil
}

// Submit posts a submission record.
func (c *Client) Submit(ctx context.Context, record models.SubmissionRecord) models.APIResponse {
	record.Action = models.ActionSubmit
	return c.post(ctx, models.ActionSubmit, record)
}

// FetchSubmissions requests every stored submission.
func (c *Client) FetchSubmissions(ctx context.Context) models.APIResponse {
	return c.post(ctx, models.ActionGetSubmissions, models.SubmissionRecord{Action: models.ActionGetSubmissions})
}

// UpdateGrade stores the score and feedback of one row.
func (c *Client) UpdateGrade(ctx context.Context, rowID int, score, feedback string) models.APIResponse {
	return c.post(ctx, models.ActionUpdateGrade, models.GradeUpdate{
		Action:   models.ActionUpdateGrade,
		RowID:    rowID,
		Score:    score,
		Feedback: feedback,
	})
}

func (c *Client) post(ctx context.Context, action models.Action, body interface{}) models.APIResponse {
	ctx, span := c.tracer.Start(ctx, "sheets.post")
	defer span.End()
	span.SetAttributes(attribute.String("sheets.action", string(action)))

	start := time.Now()
	outcome := "success"
	defer func() {
		observability.RemoteRequests().WithLabelValues(string(action), outcome).Inc()
		observability.RemoteLatency().WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	}()

	fail := func(kind string, err error, message string) models.APIResponse {
		outcome = kind
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		c.logger.Error().Err(err).Str("action", string(action)).Str("outcome", kind).Msg("spreadsheet request failed")
		return models.APIResponse{Status: models.StatusError, Message: message}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fail("encode", err, detailMessage(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cacheBustedURL(), bytes.NewReader(payload))
	if err != nil {
		return fail("request", err, detailMessage(err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if isNetworkFailure(err) {
			return fail("transport", err, ConnectivityMessage)
		}
		return fail("transport", err, detailMessage(err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		err := fmt.Errorf("server responded with status: %d", resp.StatusCode)
		return fail("http_status", err, detailMessage(err))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isNetworkFailure(err) {
			return fail("transport", err, ConnectivityMessage)
		}
		return fail("transport", err, detailMessage(err))
	}

	var result models.APIResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		err = fmt.Errorf("invalid response body: %w", err)
		return fail("malformed", err, detailMessage(err))
	}

	if !result.OK() {
		outcome = "rejected"
		c.logger.Warn().Str("action", string(action)).Str("message", result.Message).Msg("spreadsheet rejected request")
	} else {
		c.logger.Info().Str("action", string(action)).Int("rows", len(result.Data)).Msg("spreadsheet request completed")
	}
	span.SetStatus(codes.Ok, outcome)

	return result
}

func (c *Client) cacheBustedURL() string {
	separator := "?"
	if strings.Contains(c.endpoint, "?") {
		separator = "&"
	}
	return c.endpoint + separator + "t=" + strconv.FormatInt(c.now().UnixMilli(), 10)
}

func isNetworkFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func detailMessage(err error) string {
	if err == nil || err.Error() == "" {
		return GenericFailureMessage
	}
	return "เกิดข้อผิดพลาด: " + err.Error()
}
