package jogapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/2beens/jogtracker/internal/jogs"
	"github.com/2beens/jogtracker/internal/telemetry/tracing"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultBaseURL = "https://jogtracker.herokuapp.com/api"

	pathUUIDLogin = "/v1/auth/uuidLogin"
	pathUser      = "/v1/auth/user"
	pathSync      = "/v1/data/sync"
	pathJog       = "/v1/data/jog"
	pathFeedback  = "/v1/feedback/send"

	// how much of an error response body ends up in the returned error
	maxErrorBodyLen = 256
)

// Client talks to the remote jog tracker REST service.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
// A nil httpClient gets a plain client with a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &RequestError{Op: "new client", Kind: ErrWrongEndpoint, Err: fmt.Errorf("invalid base url %q", baseURL)}
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL:    u,
		httpClient: httpClient,
	}, nil
}

// Login exchanges a device uuid for an access token.
func (c *Client) Login(ctx context.Context, uuid string) (_ *jogs.AuthSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogapi.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return nil, &RequestError{Op: "login", Kind: ErrMissingParameter, Err: errors.New("uuid")}
	}

	var resp envelope[authResponse]
	if err := c.do(ctx, "login", http.MethodPost, pathUUIDLogin, "", url.Values{"uuid": {uuid}}, &resp); err != nil {
		return nil, err
	}
	if resp.Response == nil || resp.Response.AccessToken == "" {
		return nil, &RequestError{Op: "login", Kind: ErrDecodeFailure, Err: errors.New("no access token in response")}
	}

	return resp.Response.toSession(), nil
}

func (c *Client) FetchCurrentUser(ctx context.Context, accessToken string) (_ *jogs.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogapi.user")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var resp envelope[userResponse]
	if err := c.do(ctx, "fetch user", http.MethodGet, pathUser, accessToken, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Response == nil || resp.Response.ID == "" {
		return nil, &RequestError{Op: "fetch user", Kind: ErrDecodeFailure, Err: errors.New("no user in response")}
	}

	user := resp.Response.toUser()
	return &user, nil
}

// FetchAllData returns the jogs and users of every account, as the remote service knows them.
func (c *Client) FetchAllData(ctx context.Context, accessToken string) (_ *jogs.SyncData, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogapi.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var resp envelope[syncResponse]
	if err := c.do(ctx, "sync", http.MethodGet, pathSync, accessToken, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Response == nil {
		return nil, &RequestError{Op: "sync", Kind: ErrDecodeFailure, Err: errors.New("empty response")}
	}

	data := resp.Response.toSyncData()
	span.SetAttributes(
		attribute.Int("sync.jogs", len(data.Jogs)),
		attribute.Int("sync.users", len(data.Users)),
	)
	return data, nil
}

func (c *Client) CreateJog(ctx context.Context, jog jogs.Submission, accessToken string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogapi.createJog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	form, err := jogForm("create jog", jog)
	if err != nil {
		return err
	}
	return c.do(ctx, "create jog", http.MethodPost, pathJog, accessToken, form, nil)
}

func (c *Client) UpdateJog(ctx context.Context, jog jogs.Submission, accessToken string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogapi.updateJog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if jog.ID == 0 || jog.UserID == "" {
		return &RequestError{Op: "update jog", Kind: ErrMissingParameter, Err: errors.New("jog_id / user_id")}
	}
	form, err := jogForm("update jog", jog)
	if err != nil {
		return err
	}
	form.Set("jog_id", strconv.Itoa(jog.ID))
	form.Set("user_id", jog.UserID)

	return c.do(ctx, "update jog", http.MethodPut, pathJog, accessToken, form, nil)
}

func (c *Client) DeleteJog(ctx context.Context, jogID int, userID string, accessToken string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogapi.deleteJog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if jogID == 0 || userID == "" {
		return &RequestError{Op: "delete jog", Kind: ErrMissingParameter, Err: errors.New("jog_id / user_id")}
	}
	form := url.Values{
		"jog_id":  {strconv.Itoa(jogID)},
		"user_id": {userID},
	}

	return c.do(ctx, "delete jog", http.MethodDelete, pathJog, accessToken, form, nil)
}

func (c *Client) SendFeedback(ctx context.Context, feedback jogs.Feedback, accessToken string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jogapi.sendFeedback")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := feedback.Validate(); err != nil {
		return &RequestError{Op: "send feedback", Kind: ErrMissingParameter, Err: err}
	}
	if !utf8.ValidString(feedback.Text) {
		return &RequestError{Op: "send feedback", Kind: ErrMalformedRequestBody, Err: errors.New("text is not valid utf-8")}
	}
	form := url.Values{
		"topic_id": {strconv.Itoa(int(feedback.TopicID))},
		"text":     {feedback.Text},
	}

	return c.do(ctx, "send feedback", http.MethodPost, pathFeedback, accessToken, form, nil)
}

func jogForm(op string, jog jogs.Submission) (url.Values, error) {
	if jog.Date.IsZero() {
		return nil, &RequestError{Op: op, Kind: ErrMissingParameter, Err: errors.New("date")}
	}
	if math.IsNaN(jog.Distance) || math.IsInf(jog.Distance, 0) {
		return nil, &RequestError{Op: op, Kind: ErrMalformedRequestBody, Err: fmt.Errorf("distance %v", jog.Distance)}
	}
	return url.Values{
		"date":     {jog.Date.UTC().Format(jogs.DateLayout)},
		"time":     {strconv.Itoa(jog.Time)},
		"distance": {strconv.FormatFloat(jog.Distance, 'f', -1, 64)},
	}, nil
}

// do sends a request with an optional url encoded form and decodes a 2xx
// response body into out (when out is not nil).
func (c *Client) do(
	ctx context.Context,
	op, method, path, accessToken string,
	form url.Values,
	out any,
) error {
	if path != pathUUIDLogin && accessToken == "" {
		return &RequestError{Op: op, Kind: ErrMissingParameter, Err: errors.New("access token")}
	}

	endpoint := c.baseURL.JoinPath(path).String()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &RequestError{Op: op, Kind: ErrWrongEndpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	log.Tracef("jogapi: %s %s", method, endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: op, Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Kind: ErrTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{Op: op, StatusCode: resp.StatusCode, Kind: kindForStatus(resp.StatusCode)}
		if msg := strings.TrimSpace(string(respBytes)); msg != "" {
			if len(msg) > maxErrorBodyLen {
				msg = msg[:maxErrorBodyLen]
			}
			reqErr.Err = errors.New(msg)
		}
		return reqErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Kind: ErrDecodeFailure, Err: err}
	}

	return nil
}
