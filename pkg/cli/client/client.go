/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package client provides interfaces for interacting with the notesync server
// and the data structures for requests and responses
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidLogin is an error for invalid credentials for login
	ErrInvalidLogin = errors.New("wrong credentials")
	// ErrContentTypeMismatch is an error for a response in an unexpected format
	ErrContentTypeMismatch = errors.New("content type mismatch")
	// ErrNoToken is an error for an authorized request made without a session token
	ErrNoToken = errors.New("no session token found")
)

// ConnectivityError is returned when the server could not be reached
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("server unreachable: %s", e.Err.Error())
}

// Unwrap returns the underlying transport error
func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ServerError represents a non-success HTTP response from the server
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *ServerError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized error
func (e *ServerError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsConnectivity returns true if the error was caused by an unreachable server
func IsConnectivity(err error) bool {
	var cerr *ConnectivityError
	return errors.As(err, &cerr)
}

// IsNotFound returns true if the server responded that the resource does not exist
func IsNotFound(err error) bool {
	var serr *ServerError
	return errors.As(err, &serr) && serr.IsNotFound()
}

// IsUnauthorized returns true if the server rejected the session token
func IsUnauthorized(err error) bool {
	var serr *ServerError
	return errors.As(err, &serr) && serr.IsUnauthorized()
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100

	contentTypeApplicationJSON = "application/json"
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient(timeout time.Duration) *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Client talks to the notesync API
type Client struct {
	Endpoint   string
	Version    string
	HTTPClient *http.Client
}

// New returns a client for the given API endpoint
func New(endpoint, version string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Version:    version,
		HTTPClient: hc,
	}
}

func (c *Client) getReq(ctx context.Context, method, path, token string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshalling payload")
		}
		r = bytes.NewReader(b)
	}

	endpoint := fmt.Sprintf("%s%s", c.Endpoint, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", c.Version)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	return req, nil
}

// checkRespErr returns a ServerError if the given http response indicates an error
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	return &ServerError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(string(body), "\n"),
	}
}

func checkContentType(res *http.Response) error {
	got := res.Header.Get("Content-Type")
	if !strings.HasPrefix(got, contentTypeApplicationJSON) {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, contentTypeApplicationJSON)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint and decodes
// a JSON response into dest, if given. The given path should include the
// preceding slash.
func (c *Client) doReq(ctx context.Context, method, path, token string, body, dest interface{}) error {
	req, err := c.getReq(ctx, method, path, token, body)
	if err != nil {
		return errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "making http request")
		}
		return &ConnectivityError{Err: err}
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		return errors.Wrap(err, "server responded with an error")
	}

	if dest == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	if err = checkContentType(res); err != nil {
		return errors.Wrap(err, "unexpected Content-Type")
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decoding payload")
	}

	return nil
}

// doAuthorizedReq does a http request as the user owning the given token
func (c *Client) doAuthorizedReq(ctx context.Context, method, path, token string, body, dest interface{}) error {
	if token == "" {
		return ErrNoToken
	}

	return c.doReq(ctx, method, path, token, body, dest)
}

// Health checks whether the server is reachable and healthy
func (c *Client) Health(ctx context.Context) error {
	req, err := c.getReq(ctx, "GET", "/health", "", nil)
	if err != nil {
		return errors.Wrap(err, "getting request")
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	defer res.Body.Close()

	return checkRespErr(res)
}
