// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  Type
		data string
		want map[string]any
	}{
		{
			name: "json",
			typ:  TypeJSON,
			data: `{"server":{"addr":":80","workers":4}}`,
			want: map[string]any{"server": map[string]any{"addr": ":80", "workers": json.Number("4")}},
		},
		{
			name: "yaml",
			typ:  TypeYAML,
			data: "server:\n  addr: \":80\"\n",
			want: map[string]any{"server": map[string]any{"addr": ":80"}},
		},
		{
			name: "toml",
			typ:  TypeTOML,
			data: "[server]\naddr = \":80\"\n",
			want: map[string]any{"server": map[string]any{"addr": ":80"}},
		},
		{
			name: "env",
			typ:  TypeEnvVar,
			data: "SERVER_ADDR=:80\nSERVER_TLS_CERT= a.pem \n\nnot a pair\n",
			want: map[string]any{"server": map[string]any{
				"addr": ":80",
				"tls":  map[string]any{"cert": "a.pem"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := Lookup(tt.typ)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, d.Decode([]byte(tt.data), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvVarCollision(t *testing.T) {
	t.Parallel()

	var got map[string]any
	err := EnvVar{}.Decode([]byte("SERVER_ADDR=:80\nSERVER=x\n"), &got)
	require.Error(t, err)
}

func TestDecoderTarget(t *testing.T) {
	t.Parallel()

	var s string
	require.Error(t, JSON{}.Decode([]byte(`{}`), &s))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	_, err := Lookup("ini")
	require.Error(t, err)

	Register("lines", DecoderFunc(func(data []byte, v any) error {
		ptr, err := target("lines", v)
		if err != nil {
			return err
		}
		*ptr = map[string]any{"raw": string(data)}
		return nil
	}))

	d, err := Lookup("lines")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, d.Decode([]byte("a"), &got))
	assert.Equal(t, "a", got["raw"])
}
