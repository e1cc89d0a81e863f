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

package config

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wacul/ptr"
)

func TestValidateAndAddDefaults(t *testing.T) {
	cnf := Configuration{
		Redis: RedisConfig{Dns: "localhost:6379"},
	}
	err := cnf.validateAndAddDefaults()
	assert.EqualError(t, err, "data source DNS is required")

	cnf = Configuration{
		DataSource: DataSourceConfig{Dns: "postgres://localhost:5432"},
	}
	err = cnf.validateAndAddDefaults()
	assert.EqualError(t, err, "redis DNS is required")

	cnf = Configuration{
		DataSource: DataSourceConfig{Dns: " postgres://localhost:5432 "},
		Redis:      RedisConfig{Dns: "localhost:6379"},
	}
	require.NoError(t, cnf.validateAndAddDefaults())

	assert.Equal(t, "TradeDesk", cnf.ProjectName)
	assert.Equal(t, "postgres://localhost:5432", cnf.DataSource.Dns)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, DEFAULT_REQUEST_TIMEOUT_SEC, cnf.Server.RequestTimeoutSec)
	assert.Equal(t, DEFAULT_NOTIFICATION_QUEUE, cnf.Queue.NotificationQueue)
	assert.Equal(t, DEFAULT_NOTIFICATION_RETRIES, cnf.Queue.MaxRetryAttempts)
	assert.Equal(t, DEFAULT_READ_MODEL_TTL_SEC, cnf.Cache.ReadModelTTLSec)
	assert.Equal(t, 0, cnf.Providers.ReplayWindowSec)
	assert.Nil(t, cnf.RateLimit.RequestsPerSecond)
	assert.Nil(t, cnf.RateLimit.Burst)
	assert.Equal(t, 10800, *cnf.RateLimit.CleanupIntervalSec)
}

func TestValidateAndAddDefaults_RateLimit(t *testing.T) {
	cnf := Configuration{
		DataSource: DataSourceConfig{Dns: "dns"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
		RateLimit:  RateLimitConfig{RequestsPerSecond: ptr.Float64(10)},
	}
	require.NoError(t, cnf.validateAndAddDefaults())
	assert.Equal(t, 20, *cnf.RateLimit.Burst)

	cnf.RateLimit = RateLimitConfig{Burst: ptr.Int(8)}
	require.NoError(t, cnf.validateAndAddDefaults())
	assert.Equal(t, 4.0, *cnf.RateLimit.RequestsPerSecond)
}

func TestProviderSecret(t *testing.T) {
	cnf := Configuration{
		Providers: ProvidersConfig{
			Pix:   ProviderConfig{Secret: "pix-secret"},
			KYC:   ProviderConfig{Secret: "kyc-secret"},
			Other: map[string]ProviderConfig{"bank": {Secret: "bank-secret"}},
		},
	}

	secret, ok := cnf.ProviderSecret("pix")
	assert.True(t, ok)
	assert.Equal(t, "pix-secret", secret)

	secret, ok = cnf.ProviderSecret("KYC")
	assert.True(t, ok)
	assert.Equal(t, "kyc-secret", secret)

	_, ok = cnf.ProviderSecret("internal")
	assert.False(t, ok)

	secret, ok = cnf.ProviderSecret("bank")
	assert.True(t, ok)
	assert.Equal(t, "bank-secret", secret)

	_, ok = cnf.ProviderSecret("unknown")
	assert.False(t, ok)
}

func TestProviderSecret_OtherTagsIgnoreCase(t *testing.T) {
	cnf := Configuration{
		DataSource: DataSourceConfig{Dns: "postgres://localhost/tradedesk"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
		Providers: ProvidersConfig{
			Other: map[string]ProviderConfig{"Acme": {Secret: "acme-secret"}, " BANK ": {Secret: "bank-secret"}},
		},
	}
	require.NoError(t, cnf.validateAndAddDefaults())

	assert.Contains(t, cnf.Providers.Other, "acme")
	assert.Contains(t, cnf.Providers.Other, "bank")

	for _, tag := range []string{"acme", "Acme", "ACME"} {
		secret, ok := cnf.ProviderSecret(tag)
		assert.True(t, ok, tag)
		assert.Equal(t, "acme-secret", secret)
	}
	secret, ok := cnf.ProviderSecret("bank")
	assert.True(t, ok)
	assert.Equal(t, "bank-secret", secret)
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "tradedesk.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	sampleConfig := Configuration{
		ProjectName: "Temp Project",
		DataSource:  DataSourceConfig{Dns: "temp-dns"},
		Redis:       RedisConfig{Dns: "temp-redis"},
		Providers:   ProvidersConfig{Pix: ProviderConfig{Secret: "from-file"}},
	}
	require.NoError(t, json.NewEncoder(tmpFile).Encode(sampleConfig))
	tmpFile.Close()

	t.Setenv("TRADEDESK_PROJECT_NAME", "Env Project")
	t.Setenv("TRADEDESK_SERVER_PORT", "6000")

	require.NoError(t, loadConfigFromFile(tmpFile.Name()))

	loadedConfig, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Env Project", loadedConfig.ProjectName)
	assert.Equal(t, "6000", loadedConfig.Server.Port)
	assert.Equal(t, "temp-dns", loadedConfig.DataSource.Dns)
	assert.Equal(t, "from-file", loadedConfig.Providers.Pix.Secret)
}

func TestMockConfig(t *testing.T) {
	MockConfig(&Configuration{ProjectName: "mocked"})
	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "mocked", cnf.ProjectName)
}
