package groupclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const groupAPIPath = "/api/v1/deployment/group"

// DeploymentGroup as returned by groupd.
type DeploymentGroup struct {
	ID        string    `json:"deploymentGroupId"`
	CreatedBy string    `json:"createdBy"`
	Created   time.Time `json:"created"`
	Lifecycle string    `json:"lifecycle"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type createRequest struct {
	CreatedBy string   `json:"createdBy"`
	Layers    []string `json:"layers"`
}

type mergeRequest struct {
	Layers []string `json:"layers"`
}

type Client struct {
	HTTPClient *http.Client
	Server     string
}

func (c *Client) Create(ctx context.Context, createdBy string, layers []string) (*DeploymentGroup, error) {
	group := &DeploymentGroup{}
	err := c.do(ctx, http.MethodPost, groupAPIPath, &createRequest{CreatedBy: createdBy, Layers: layers}, group)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (c *Client) Get(ctx context.Context, id string) (*DeploymentGroup, error) {
	group := &DeploymentGroup{}
	err := c.do(ctx, http.MethodGet, groupPath(id), nil, group)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (c *Client) Merge(ctx context.Context, id string, layers []string) (*DeploymentGroup, error) {
	group := &DeploymentGroup{}
	err := c.do(ctx, http.MethodPut, groupPath(id)+"/layers", &mergeRequest{Layers: layers}, group)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, groupPath(id), nil, nil)
}

func groupPath(id string) string {
	return groupAPIPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload, target interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return ErrorWrap(ExitInternalError, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.Server, "/")+path, body)
	if err != nil {
		return ErrorWrap(ExitInvocationFailure, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Errorf(ExitTimeout, "request timed out: %w", ctx.Err())
		}
		return ErrorWrap(ExitUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Errorf(ExitUnavailable, "read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(data))
		response := &errorResponse{}
		if json.Unmarshal(data, response) == nil && len(response.Message) > 0 {
			message = response.Message
		}
		return Errorf(exitCode(resp.StatusCode), "%s %s: %s: %s", method, path, resp.Status, message)
	}

	if target == nil {
		return nil
	}

	err = json.Unmarshal(data, target)
	if err != nil {
		return Errorf(ExitInternalError, "decode response: %w", err)
	}

	return nil
}

func exitCode(statusCode int) ExitCode {
	switch {
	case statusCode == http.StatusNotFound:
		return ExitNotFound
	case statusCode >= 400 && statusCode < 500:
		return ExitRejected
	case statusCode == http.StatusGatewayTimeout:
		return ExitTimeout
	default:
		return ExitUnavailable
	}
}
