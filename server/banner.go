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

package server

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"

	"rivaas.dev/relay/router"
)

var gradient = []string{"12", "14", "10", "11"}

// printBanner writes the service name in large letters followed by the
// service details and, when known, the route table. Colors are reduced
// to what w supports and dropped in production.
func (s *Server) printBanner(w io.Writer, addr, protocol string) {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if s.opts.env == "production" {
		cpw.Profile = colorprofile.NoTTY
	}

	var out strings.Builder
	for _, line := range figure.NewFigure(s.opts.service, "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			out.WriteString("\n")
			continue
		}
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			out.WriteString(style.Render(string(ch)))
		}
		out.WriteString("\n")
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)

	out.WriteString("\n" + category.Render("Service") + "\n")
	row := func(name, v, color string) {
		out.WriteString(label.Render(name+":") + "  " + value.Foreground(lipgloss.Color(color)).Render(v) + "\n")
	}
	row("Version", s.opts.version, "14")
	row("Environment", s.opts.env, "11")
	row("Address", displayAddr(addr, protocol), "10")

	if s.opts.routes != nil {
		if t := routesTable(s.opts.routes); t != "" {
			out.WriteString("\n" + t + "\n")
		}
	}

	_, _ = fmt.Fprintln(cpw)
	_, _ = fmt.Fprint(cpw, out.String())
	_, _ = fmt.Fprintln(cpw)
}

// displayAddr turns ":8080" into "http://0.0.0.0:8080".
func displayAddr(addr, protocol string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	if protocol == "HTTPS" {
		return "https://" + addr
	}

	return "http://" + addr
}

var methodColors = map[string]string{
	"GET":     "10",
	"POST":    "12",
	"PUT":     "11",
	"DELETE":  "9",
	"PATCH":   "13",
	"HEAD":    "14",
	"OPTIONS": "7",
}

func routesTable(r *router.Router) string {
	var rows [][]string
	for info := range r.Routes() {
		methods := make([]string, len(info.Methods))
		for i, m := range info.Methods {
			if c, ok := methodColors[m]; ok {
				m = lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true).Render(m)
			}
			methods[i] = m
		}
		kind := "route"
		if info.Scope {
			kind = "scope"
		}
		rows = append(rows, []string{strings.Join(methods, " "), info.Pattern, kind})
	}
	if len(rows) == 0 {
		return ""
	}

	header := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Methods", "Pattern", "Kind").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}
