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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestLimit(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Close()
	handler := limiter.Limit(http.HandlerFunc(okHandler))

	blocked := 0
	for range serverRateLimitBurst + 5 {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			blocked++
		}
	}

	if blocked == 0 {
		t.Error("expected some requests to be rate limited after burst")
	}

	// another client is not affected
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.2:5678"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, w.Code, http.StatusOK, "status code mismatch")
}

func TestApply(t *testing.T) {
	var nilLimiter *RateLimiter
	h := nilLimiter.Apply(okHandler, true)

	for range serverRateLimitBurst + 5 {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, w.Code, http.StatusOK, "status code mismatch")
	}
}

func TestCleanup(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Close()

	limiter.getVisitor("10.0.0.1")
	limiter.cleanup(time.Now())
	assert.Equal(t, len(limiter.visitors), 1, "recent visitor should be kept")

	limiter.cleanup(time.Now().Add(visitorTTL + time.Second))
	assert.Equal(t, len(limiter.visitors), 0, "idle visitor should be removed")
}

func TestLookupIP(t *testing.T) {
	testCases := []struct {
		name       string
		remoteAddr string
		header     map[string]string
		expected   string
	}{
		{"remote addr", "10.0.0.1:5000", nil, "10.0.0.1"},
		{"real ip", "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"forwarded for", "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.2", "X-Real-IP": "1.2.3.4"}, "5.6.7.8"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}

			assert.Equal(t, lookupIP(req), tc.expected, "ip mismatch")
		})
	}
}
