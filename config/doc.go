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

// Package config loads layered configuration into maps and structs.
//
// Sources are loaded in the order they were added and merged so that
// later sources override earlier ones. Keys are case-insensitive. After
// merging, the values can be checked against a JSON Schema and custom
// validators, then bound into a struct whose `default` tags fill gaps
// and whose validation tags are enforced.
//
//	var cfg server.Config
//	c := config.MustNew(
//		config.WithFile("relay.yaml"),
//		config.WithEnv("RELAY"),
//		config.WithBinding(&cfg),
//	)
//	if err := c.Load(ctx); err != nil {
//		return err
//	}
//
// Environment variables nest on underscores, so RELAY_SERVER_ADDR sets
// server.addr. Keys that must be reachable from the environment should
// not contain underscores themselves.
package config
