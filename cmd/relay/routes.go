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

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"rivaas.dev/relay/logging"
	"rivaas.dev/relay/router"
)

// Routes prints the route table without starting a server.
type Routes struct{}

func (c *Routes) Run(actx *appContext) error {
	_, s, err := loadSettings(context.Background(), actx.configFile)
	if err != nil {
		return err
	}

	a, err := newApp(*s, logging.Discard())
	if err != nil {
		return err
	}
	defer a.close(context.Background()) //nolint:errcheck // Nothing was exported.

	r, err := a.routes()
	if err != nil {
		return err
	}

	return renderRoutes(actx.stdout, r)
}

func renderRoutes(w io.Writer, r *router.Router) error {
	var data [][]string
	for info := range r.Routes() {
		kind := "route"
		if info.Scope {
			kind = "scope"
		}
		data = append(data, []string{strings.Join(info.Methods, ","), info.Pattern, kind})
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(
			tw.Rendition{
				Borders: tw.BorderNone,
				Symbols: tw.NewSymbols(tw.StyleASCII),
				Settings: tw.Settings{
					Lines: tw.Lines{
						ShowHeaderLine: tw.Off,
						ShowFooterLine: tw.Off,
						ShowTop:        tw.Off,
						ShowBottom:     tw.Off,
					},
					Separators: tw.Separators{
						ShowHeader:     tw.Off,
						ShowFooter:     tw.Off,
						BetweenRows:    tw.Off,
						BetweenColumns: tw.Off,
					},
				},
			},
		)),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)

	table.Header([]string{"METHODS", "PATTERN", "KIND"})
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("routes table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("routes table: %w", err)
	}

	return nil
}
