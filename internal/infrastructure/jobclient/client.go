// Package jobclient talks to the remote render service's REST API.
package jobclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

// Client implements the run API: listing, details, submission, progress and
// cancellation. Every request authenticates with a Bearer token of the form
// "namespace/secret"; the namespace is the agent's identity on the service.
type Client struct {
	client    *resty.Client
	namespace string
}

// New creates a run API client.
func New(baseURL, namespace, secret string, timeout time.Duration, log zerolog.Logger) *Client {
	clientLog := log.With().Str("component", "job-client").Logger()

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(fmt.Sprintf("%s/%s", namespace, secret))
	client.AddResponseMiddleware(func(_ *resty.Client, r *resty.Response) error {
		clientLog.Debug().
			Int("status", r.StatusCode()).
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Dur("latency", r.Duration()).
			Msg("run API request")
		return nil
	})

	return &Client{client: client, namespace: namespace}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.client.Close()
}

type listResponse struct {
	Runs  []run.Details `json:"runs"`
	Total int           `json:"total"`
}

type createResponse struct {
	ObjectID  string `json:"objectId"`
	RunID     string `json:"runId"`
	Namespace string `json:"prefix"`
	QueueSize int    `json:"queueSize"`
	QueueTime int64  `json:"queueTime"`
}

// List returns one page of the user's runs, newest first, plus the total
// count across all pages.
func (c *Client) List(ctx context.Context, user string, page, limit int) ([]run.Details, int, error) {
	var body listResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user", user).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&body).
		Get("/runs")
	if err != nil {
		return nil, 0, transportError(err, "list runs")
	}
	if resp.IsError() {
		return nil, 0, remoteError(resp, "list runs")
	}
	return body.Runs, body.Total, nil
}

// Get fetches the full details of a single run.
func (c *Client) Get(ctx context.Context, jobID, user string) (run.Details, error) {
	var body run.Details
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user", user).
		SetResult(&body).
		Get("/runs/" + jobID)
	if err != nil {
		return run.Details{}, transportError(err, "fetch run")
	}
	if resp.IsError() {
		return run.Details{}, remoteError(resp, "fetch run")
	}
	return body, nil
}

// Create submits a new run and returns its address and queue position.
func (c *Client) Create(ctx context.Context, sub run.Submission) (run.Receipt, error) {
	var body createResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(sub).
		SetResult(&body).
		Post("/runs/new")
	if err != nil {
		return run.Receipt{}, transportError(err, "create run")
	}
	if resp.IsError() {
		return run.Receipt{}, remoteError(resp, "create run")
	}

	namespace := body.Namespace
	if namespace == "" {
		namespace = c.namespace
	}
	return run.Receipt{
		Address:   run.JobAddress{Namespace: namespace, User: sub.User, JobID: body.RunID},
		QueueSize: body.QueueSize,
		QueueTime: body.QueueTime,
	}, nil
}

// Progress fetches the live status of a run past the queue.
func (c *Client) Progress(ctx context.Context, jobID, user string) (run.ProgressInfo, error) {
	var body run.ProgressInfo
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user", user).
		SetResult(&body).
		Get("/runs/" + jobID + "/progress")
	if err != nil {
		return run.ProgressInfo{}, transportError(err, "fetch run progress")
	}
	if resp.IsError() {
		return run.ProgressInfo{}, remoteError(resp, "fetch run progress")
	}
	return body, nil
}

// Cancel asks the remote service to cancel a run. Cancellation is
// asynchronous; the outcome arrives as a status event.
func (c *Client) Cancel(ctx context.Context, jobID, user string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user", user).
		Post("/runs/" + jobID + "/cancel")
	if err != nil {
		return transportError(err, "cancel run")
	}
	if resp.IsError() {
		return remoteError(resp, "cancel run")
	}
	return nil
}

func transportError(err error, message string) error {
	return platformerrors.NewError(platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeTransport, message+" request failed", err)
}

func remoteError(resp *resty.Response, message string) error {
	return platformerrors.NewRemoteServiceError(platformerrors.LayerInfrastructure,
		resp.StatusCode(), fmt.Sprintf("%s failed with status %d", message, resp.StatusCode()))
}
