package geoserver

import (
	"net/http"
)

type httpClient struct {
	client   *http.Client
	username string
	password string
}

func (c *httpClient) Do(req *http.Request) (*http.Response, error) {
	if len(c.username) > 0 {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json, application/xml")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}
