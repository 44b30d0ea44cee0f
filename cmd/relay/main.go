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

// Command relay runs a demo server built from the relay packages.
//
//	relay serve --config relay.yaml
//	relay routes
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"

	"rivaas.dev/relay/logging"
)

var version = "dev"

// CLI is the command line of relay.
type CLI struct {
	Config string `kong:"short='c',type='path',help='Configuration file (YAML, JSON or TOML). Defaults to relay/config.yaml in the XDG config directories.'"`
	Log    struct {
		Level  string `kong:"default='info',enum='debug,info,warn,error',help='Log level.'"`
		Format string `kong:"default='console',enum='console,json,text',help='Log format.'"`
	} `kong:"embed,prefix='log-'"`
	Version kong.VersionFlag `kong:"help='Print the version and exit.'"`

	Serve  Serve  `kong:"cmd,help='Run the demo server.'"`
	Routes Routes `kong:"cmd,help='List the demo routes.'"`
}

// appContext is handed to every command.
type appContext struct {
	configFile string
	logger     *logging.Logger
	stdout     io.Writer
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("relay"),
		kong.Description("Demo server for the relay HTTP framework."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}),
		kong.Vars{"version": version},
	)

	if cli.Config == "" {
		cli.Config = defaultConfigFile()
	}

	logger, err := newLogger(cli.Log.Level, cli.Log.Format, os.Stderr)
	kctx.FatalIfErrorf(err)
	slog.SetDefault(logger.Logger())

	err = kctx.Run(&appContext{configFile: cli.Config, logger: logger, stdout: os.Stdout})
	kctx.FatalIfErrorf(err)
}

// defaultConfigFile finds relay/config.yaml in the XDG config directories.
func defaultConfigFile() string {
	path, err := xdg.SearchConfigFile(filepath.Join("relay", "config.yaml"))
	if err != nil {
		return ""
	}

	return path
}

func newLogger(level, format string, w io.Writer) (*logging.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := []logging.Option{
		logging.WithOutput(w),
		logging.WithLevel(lvl),
		logging.WithServiceName("relay"),
		logging.WithServiceVersion(version),
	}
	switch format {
	case "json":
		opts = append(opts, logging.WithJSONHandler())
	case "text":
		opts = append(opts, logging.WithTextHandler())
	case "console":
		opts = append(opts, logging.WithConsoleHandler())
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return logging.New(opts...)
}
