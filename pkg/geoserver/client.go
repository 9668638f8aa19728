package geoserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/craigwongva/pz-access/pkg/groupd/metrics"
	"github.com/craigwongva/pz-access/pkg/layergroup"
	"github.com/craigwongva/pz-access/pkg/logging"
	"github.com/craigwongva/pz-access/pkg/telemetry"
	log "github.com/sirupsen/logrus"
)

type FetchFormat string

const (
	// GeoServer returns malformed JSON for layer groups with more than five layers,
	// so XML is the default format for reading.
	FetchFormatXML  FetchFormat = "xml"
	FetchFormatJSON FetchFormat = "json"

	DefaultWorkspace = "piazza"

	maxResponseSize = 4 * 1024 * 1024
)

// Client performs layer group requests against the GeoServer REST API.
// Every call is attempted exactly once.
type Client interface {
	Fetch(ctx context.Context, name string) (*layergroup.LayerGroup, error)
	Create(ctx context.Context, group *layergroup.LayerGroup) error
	Update(ctx context.Context, group *layergroup.LayerGroup) error
	Delete(ctx context.Context, name string) error
}

type Config struct {
	URL         string
	Workspace   string
	Username    string
	Password    string
	FetchFormat FetchFormat
	HTTPClient  *http.Client
}

type client struct {
	baseURL     string
	fetchFormat FetchFormat
	httpClient  *httpClient
}

type response struct {
	statusCode int
	body       []byte
}

var _ Client = &client{}

func New(cfg Config) (Client, error) {
	serverURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse GeoServer URL: %w", err)
	}
	if serverURL.Scheme != "http" && serverURL.Scheme != "https" {
		return nil, fmt.Errorf("GeoServer URL must be http or https, got '%s'", cfg.URL)
	}

	workspace := cfg.Workspace
	if len(workspace) == 0 {
		workspace = DefaultWorkspace
	}

	fetchFormat := cfg.FetchFormat
	switch fetchFormat {
	case "":
		fetchFormat = FetchFormatXML
	case FetchFormatXML, FetchFormatJSON:
	default:
		return nil, fmt.Errorf("fetch format '%s' is not recognized", fetchFormat)
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}

	return &client{
		baseURL:     fmt.Sprintf("%s/rest/workspaces/%s/layergroups", strings.TrimRight(cfg.URL, "/"), url.PathEscape(workspace)),
		fetchFormat: fetchFormat,
		httpClient: &httpClient{
			client:   httpc,
			username: cfg.Username,
			password: cfg.Password,
		},
	}, nil
}

func (c *client) collectionURL() string {
	return c.baseURL + ".json"
}

func (c *client) resourceURL(name string, format FetchFormat) string {
	return fmt.Sprintf("%s/%s.%s", c.baseURL, url.PathEscape(name), format)
}

func (c *client) Fetch(ctx context.Context, name string) (group *layergroup.LayerGroup, err error) {
	target := c.resourceURL(name, c.fetchFormat)
	ctx, end := telemetry.Start(ctx, "geoserver.Fetch",
		telemetry.AttributeDeploymentGroup.String(name),
		telemetry.AttributeHTTPMethod.String(http.MethodGet),
		telemetry.AttributeHTTPURL.String(target),
	)
	defer func() { end(err) }()

	resp, err := c.do(ctx, name, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	if !successful(resp.statusCode) {
		return nil, &SyncError{
			Group:      name,
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.statusCode,
			Body:       string(resp.body),
		}
	}

	decode := layergroup.DecodeXML
	if c.fetchFormat == FetchFormatJSON {
		decode = layergroup.DecodeJSON
	}

	group, err = decode(resp.body)
	if err != nil {
		return nil, &SyncError{
			Group:      name,
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.statusCode,
			Err:        err,
		}
	}

	return group, nil
}

func (c *client) Create(ctx context.Context, group *layergroup.LayerGroup) error {
	return c.write(ctx, http.MethodPost, c.collectionURL(), group)
}

func (c *client) Update(ctx context.Context, group *layergroup.LayerGroup) error {
	if group == nil {
		return &layergroup.EncodingError{Err: fmt.Errorf("no layer group")}
	}
	return c.write(ctx, http.MethodPut, c.resourceURL(group.Name, FetchFormatJSON), group)
}

func (c *client) Delete(ctx context.Context, name string) (err error) {
	target := c.resourceURL(name, FetchFormatJSON)
	ctx, end := telemetry.Start(ctx, "geoserver.Delete",
		telemetry.AttributeDeploymentGroup.String(name),
		telemetry.AttributeHTTPMethod.String(http.MethodDelete),
		telemetry.AttributeHTTPURL.String(target),
	)
	defer func() { end(err) }()

	resp, err := c.do(ctx, name, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}

	switch {
	case successful(resp.statusCode):
		return nil
	case resp.statusCode == http.StatusNotFound:
		return fmt.Errorf("delete layer group %s: %w", name, ErrNotFound)
	default:
		return &SyncError{
			Group:      name,
			Method:     http.MethodDelete,
			URL:        target,
			StatusCode: resp.statusCode,
			Body:       string(resp.body),
		}
	}
}

// Creating and updating share the payload; only method and URL differ.
// The payload is encoded before anything is sent.
func (c *client) write(ctx context.Context, method, target string, group *layergroup.LayerGroup) (err error) {
	payload, err := layergroup.EncodeJSON(group)
	if err != nil {
		return err
	}

	ctx, end := telemetry.Start(ctx, "geoserver.Write",
		telemetry.AttributeDeploymentGroup.String(group.Name),
		telemetry.AttributeLayerCount.Int(len(group.Layers)),
		telemetry.AttributeHTTPMethod.String(method),
		telemetry.AttributeHTTPURL.String(target),
	)
	defer func() { end(err) }()

	logger := log.WithFields(log.Fields{
		logging.LogFieldDeploymentGroup: group.Name,
		logging.LogFieldMethod:          method,
		logging.LogFieldURL:             target,
	})

	resp, err := c.do(ctx, group.Name, method, target, payload)
	if err != nil {
		logger.Errorf("Sending layer group to GeoServer: %s", err)
		logger.Errorf("Request payload for failed request was: %s", payload)
		return err
	}

	if resp.statusCode != http.StatusOK && resp.statusCode != http.StatusCreated {
		err = &SyncError{
			Group:      group.Name,
			Method:     method,
			URL:        target,
			StatusCode: resp.statusCode,
			Body:       string(resp.body),
		}
		logger.WithField(logging.LogFieldStatusCode, resp.statusCode).Errorf("Sending layer group to GeoServer: %s", err)
		logger.Errorf("Request payload for failed request was: %s", payload)
		return err
	}

	logger.Debugf("Layer group with %d layers sent to GeoServer", len(group.Layers))

	return nil
}

func (c *client) do(ctx context.Context, group, method, target string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	syncError := &SyncError{
		Group:  group,
		Method: method,
		URL:    target,
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		syncError.Err = err
		return nil, syncError
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GeoServerRequest(start, method, 0)
		syncError.Err = err
		return nil, syncError
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	metrics.GeoServerRequest(start, method, resp.StatusCode)
	telemetry.SetAttributes(ctx, telemetry.AttributeHTTPStatusCode.Int(resp.StatusCode))
	if err != nil {
		syncError.StatusCode = resp.StatusCode
		syncError.Err = fmt.Errorf("read response body: %w", err)
		return nil, syncError
	}

	return &response{
		statusCode: resp.StatusCode,
		body:       data,
	}, nil
}

func successful(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
