package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/weaveworks/common/http/client"
)

// StatusError is returned when the remote end answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Status)
}

// JSONClient embeds a client to make requests and unmarshals JSON responses into an
// expected struct.
type JSONClient struct {
	cl client.Requester
}

// NewJSONClient creates a JSONClient. The `client` is for making requests.
func NewJSONClient(client client.Requester) *JSONClient {
	return &JSONClient{client}
}

// Get does a GET request and unmarshals the response into dest.
func (c *JSONClient) Get(ctx context.Context, operation, url string, dest interface{}) error {
	r, err := c.send(ctx, operation, "GET", url, "", nil)
	if err != nil {
		return err
	}
	return c.parseJSON(r, dest)
}

// Post does a POST request and unmarshals the response into dest.
func (c *JSONClient) Post(ctx context.Context, operation, url string, data interface{}, dest interface{}) error {
	r, err := c.sendJSON(ctx, operation, "POST", url, data)
	if err != nil {
		return err
	}
	return c.parseJSON(r, dest)
}

// Put does a PUT request and unmarshals the response into dest.
func (c *JSONClient) Put(ctx context.Context, operation, url string, data interface{}, dest interface{}) error {
	r, err := c.sendJSON(ctx, operation, "PUT", url, data)
	if err != nil {
		return err
	}
	return c.parseJSON(r, dest)
}

// Delete does a DELETE request and unmarshals the response into dest.
func (c *JSONClient) Delete(ctx context.Context, operation, url string, dest interface{}) error {
	r, err := c.sendJSON(ctx, operation, "DELETE", url, nil)
	if err != nil {
		return err
	}
	return c.parseJSON(r, dest)
}

// Do executes the given request. It embeds the context into the request and ties the operation name to it.
func (c *JSONClient) Do(ctx context.Context, operation string, r *http.Request) (*http.Response, error) {
	if operation != "" {
		ctx = context.WithValue(ctx, client.OperationNameContextKey, operation)
	}
	r = r.WithContext(ctx)
	return c.cl.Do(r)
}

func (c *JSONClient) parseJSON(resp *http.Response, dest interface{}) error {
	defer resp.Body.Close()
	var err error
	if dest != nil {
		// Read body even on error status since it may contain further information
		err = json.NewDecoder(resp.Body).Decode(dest)
		if err == io.EOF {
			err = nil
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return err
}

func (c *JSONClient) sendJSON(ctx context.Context, operation, method, url string, data interface{}) (*http.Response, error) {
	var body io.Reader
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	return c.send(ctx, operation, method, url, "application/json", body)
}

// send is the one method in this struct to actually doing the request.
func (c *JSONClient) send(ctx context.Context, operation, method, url, contentType string, body io.Reader) (*http.Response, error) {
	r, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("Accept", "application/json")
	return c.Do(ctx, operation, r)
}
