/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/internal/apierror"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/transactions/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestSecretKeyAuthMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		server       config.ServerConfig
		key          string
		expectedCode int
	}{
		{name: "secure mode off", server: config.ServerConfig{}, expectedCode: http.StatusOK},
		{name: "valid key", server: config.ServerConfig{Secure: true, SecretKey: "master-key"}, key: "master-key", expectedCode: http.StatusOK},
		{name: "missing key", server: config.ServerConfig{Secure: true, SecretKey: "master-key"}, expectedCode: http.StatusUnauthorized},
		{name: "wrong key", server: config.ServerConfig{Secure: true, SecretKey: "master-key"}, key: "guess", expectedCode: http.StatusUnauthorized},
		{name: "secret not configured", server: config.ServerConfig{Secure: true}, key: "anything", expectedCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.MockConfig(&config.Configuration{Server: tt.server})
			router := newRouter(SecretKeyAuthMiddleware())

			req := httptest.NewRequest(http.MethodGet, "/transactions/txn_1", nil)
			if tt.key != "" {
				req.Header.Set(KeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusUnauthorized {
				var resp apierror.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, apierror.ErrUnauthorized, resp.Code)
				assert.Equal(t, apierror.MessageFor(apierror.ErrUnauthorized), resp.Message)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rps := 1.0
	burst := 1
	cleanup := 60
	conf := &config.Configuration{RateLimit: config.RateLimitConfig{RequestsPerSecond: &rps, Burst: &burst, CleanupIntervalSec: &cleanup}}
	router := newRouter(RateLimitMiddleware(conf))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/transactions/txn_1", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := newRouter(RateLimitMiddleware(&config.Configuration{}))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transactions/txn_1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTimeout(50 * time.Millisecond))

	var deadline time.Time
	var hasDeadline bool
	r.GET("/health", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, time.Second)
}
