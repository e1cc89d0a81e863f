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

package request_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/tradedesk/internal/request"
)

func TestToJsonReq(t *testing.T) {
	payload := map[string]string{"key": "value"}

	buf, err := request.ToJsonReq(payload)
	require.NoError(t, err)
	expected, _ := json.Marshal(payload)
	assert.Equal(t, expected, buf.Bytes())

	buf, err = request.ToJsonReq(map[string]interface{}{"key": make(chan int)})
	assert.Error(t, err)
	assert.Nil(t, buf)
}

func TestCall(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "https://hooks.example.com/ok",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			return httpmock.NewStringResponse(200, `{"status":"success"}`), nil
		})
	httpmock.RegisterResponder("POST", "https://hooks.example.com/empty",
		httpmock.NewStringResponder(204, ""))
	httpmock.RegisterResponder("POST", "https://hooks.example.com/broken",
		httpmock.NewStringResponder(200, `{malformed`))
	httpmock.RegisterResponder("POST", "https://hooks.example.com/down",
		httpmock.NewStringResponder(503, "unavailable"))

	req, _ := http.NewRequest("POST", "https://hooks.example.com/ok", nil)
	var response map[string]string
	resp, err := request.Call(req, &response)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", response["status"])

	req, _ = http.NewRequest("POST", "https://hooks.example.com/empty", nil)
	_, err = request.Call(req, &response)
	assert.NoError(t, err)

	req, _ = http.NewRequest("POST", "https://hooks.example.com/broken", nil)
	_, err = request.Call(req, &response)
	assert.Error(t, err)

	req, _ = http.NewRequest("POST", "https://hooks.example.com/down", nil)
	_, err = request.Call(req, nil)
	var statusErr *request.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, request.IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, request.IsRetryable(nil))
	assert.True(t, request.IsRetryable(errors.New("connection refused")))
	assert.True(t, request.IsRetryable(&request.StatusError{StatusCode: 429}))
	assert.False(t, request.IsRetryable(&request.StatusError{StatusCode: 400}))
}
