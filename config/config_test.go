// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notaryproject/sigscope/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("field", "message")
	assert.Equal(t, "config error in 'field': message", err.Error())

	err = NewConfigError("", "general error")
	assert.Equal(t, "config error: general error", err.Error())

	cause := errors.New("cause")
	wrapped := &ConfigError{Message: "wrapped", Err: cause}
	assert.ErrorIs(t, wrapped, cause)
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "text", c.Output.Format)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 30*time.Second, c.Server.ReadTimeout)
}

func TestParse(t *testing.T) {
	data := []byte(`
max-signature-size: 1024
concurrency: 2
output:
  format: json
log:
  level: debug
  format: json
server:
  addr: 127.0.0.1:9000
  read-timeout: 5s
oids:
  - oid: 1.2.3.4
    name: custom
    role: signing-time
`)
	c, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 1024, c.MaxSignatureSize)
	assert.Equal(t, 2, c.Concurrency)
	assert.Equal(t, "json", c.Output.Format)
	assert.True(t, c.Output.Color, "unset fields keep defaults")
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, 5*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, c.Server.WriteTimeout)
	require.Len(t, c.OIDs, 1)

	reg, err := c.Registry()
	require.NoError(t, err)
	assert.Equal(t, oid.RoleSigningTime, reg.RoleOf("1.2.3.4"))
	assert.Equal(t, "custom", reg.Name("1.2.3.4"))
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"negative size", "max-signature-size: -1", "max-signature-size"},
		{"zero concurrency", "concurrency: 0", "concurrency"},
		{"unknown format", "output: {format: xml}", "output.format"},
		{"unknown log level", "log: {level: loud}", "log.level"},
		{"unknown log format", "log: {format: logfmt}", "log.format"},
		{"zero upload size", "server: {max-upload-size: 0}", "server.max-upload-size"},
		{"invalid OID", "oids: [{oid: 1.a, name: x}]", "oids[0].oid"},
		{"unknown role", `oids: [{oid: "1.2", name: x, role: nope}]`, "oids[0].role"},
		{"built-in role changed", `oids: [{oid: "1.2.840.113549.1.9.5", name: x, role: signature-timestamp-token}]`, "oids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			var configErr *ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tt.field, configErr.Field)
		})
	}

	_, err := Parse([]byte("oids: [{oid: x, name: y}]"))
	assert.ErrorIs(t, err, ErrInvalidOID)

	_, err = Parse([]byte("output: ["))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Empty(t, configErr.Field)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concurrency: 8\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Concurrency)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOIDRegex(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1.2.3.4", true},
		{"1.2.840.113549.1.1.1", true},
		{"1.2", true},
		{"1", false},
		{"abc", false},
		{"1.2.abc", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, OIDRegex.MatchString(tt.input), tt.input)
	}
}

func TestRegistryRenamesBuiltin(t *testing.T) {
	cfg, err := Parse([]byte(`oids: [{oid: "1.2.840.113549.1.9.16.2.14", name: "RFC 3161 token"}]`))
	require.NoError(t, err)

	registry, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, "RFC 3161 token", registry.Name(oid.SignatureTimeStampToken.String()))
	assert.Equal(t, oid.RoleSignatureTimeStampToken, registry.RoleOf(oid.SignatureTimeStampToken.String()))
}
