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
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"rivaas.dev/relay/extract"
	"rivaas.dev/relay/logging"
	"rivaas.dev/relay/metrics"
	"rivaas.dev/relay/middleware/accesslog"
	"rivaas.dev/relay/middleware/basicauth"
	"rivaas.dev/relay/middleware/bodylimit"
	"rivaas.dev/relay/middleware/catch"
	"rivaas.dev/relay/middleware/compression"
	"rivaas.dev/relay/middleware/cors"
	"rivaas.dev/relay/middleware/methodoverride"
	"rivaas.dev/relay/middleware/ratelimit"
	"rivaas.dev/relay/middleware/recovery"
	"rivaas.dev/relay/middleware/requestid"
	"rivaas.dev/relay/middleware/security"
	"rivaas.dev/relay/middleware/timeout"
	"rivaas.dev/relay/middleware/trailingslash"
	"rivaas.dev/relay/router"
	"rivaas.dev/relay/server"
	"rivaas.dev/relay/sse"
	"rivaas.dev/relay/static"
	"rivaas.dev/relay/tracing"
	"rivaas.dev/relay/web"
	"rivaas.dev/relay/ws"
)

// streamPaths are long-lived and skip buffering middleware.
var streamPaths = []string{"/ws", "/events"}

type app struct {
	settings settings
	logger   *slog.Logger
	tracer   *tracing.Tracer
	metrics  *metrics.Recorder
	health   *server.Health
	started  time.Time
	now      func() time.Time
}

func newApp(s settings, logger *slog.Logger) (*app, error) {
	tracer, err := newTracer(s)
	if err != nil {
		return nil, err
	}
	rec, err := metrics.New(
		metrics.WithPrometheus(),
		metrics.WithServiceName(s.Service.Name),
		metrics.WithServiceVersion(version),
	)
	if err != nil {
		return nil, errors.Join(err, tracer.Shutdown(context.Background()))
	}

	return &app{
		settings: s,
		logger:   logger,
		tracer:   tracer,
		metrics:  rec,
		health:   server.NewHealth(),
		started:  time.Now(),
		now:      time.Now,
	}, nil
}

func newTracer(s settings) (*tracing.Tracer, error) {
	opts := []tracing.Option{
		tracing.WithServiceName(s.Service.Name),
		tracing.WithServiceVersion(version),
		tracing.WithSampleRate(s.Tracing.SampleRate),
		tracing.WithGlobalTracerProvider(),
	}
	switch s.Tracing.Provider {
	case "stdout":
		opts = append(opts, tracing.WithStdout(os.Stderr))
	case "otlp":
		opts = append(opts, tracing.WithOTLP(s.Tracing.Endpoint))
	case "otlp-http":
		opts = append(opts, tracing.WithOTLPHTTP(s.Tracing.Endpoint))
	default:
		opts = append(opts, tracing.WithNoop())
	}

	return tracing.New(opts...)
}

func (a *app) close(ctx context.Context) error {
	return errors.Join(a.metrics.Shutdown(ctx), a.tracer.Shutdown(ctx))
}

// routes builds the route table.
func (a *app) routes() (*router.Router, error) {
	prom, err := a.metrics.Handler()
	if err != nil {
		return nil, err
	}

	api := router.New().
		Route("/echo", router.Post(extract.Handle(extract.Validated(extract.JSON[echoRequest]()), a.echo))).
		Route("/info", router.Get(web.HandlerFunc(a.info))).
		Route("/upload", router.Post(extract.Handle(extract.Multipart(), a.upload)))

	r := router.New().
		Route("/hello/{name}", router.Get(extract.Handle(extract.Param("name"), hello))).
		Route("/ws", router.Get(web.HandlerFunc(a.socket))).
		Route("/events", router.Get(extract.Handle(extract.Query[clockQuery](), a.clock))).
		Route("/metrics", router.Get(server.FromHTTP(prom))).
		Merge(a.health.Routes()).
		ScopeMergeWith("/api", api,
			bodylimit.New(bodylimit.WithMaxSize(64<<10)),
			methodoverride.New(),
		)

	if dir := a.settings.Static.Dir; dir != "" {
		if err := r.TryScope(a.settings.Static.Prefix, router.Get(static.Dir(dir))); err != nil {
			return nil, err
		}
	}

	if len(a.settings.Admins) > 0 {
		auth := basicauth.New(
			basicauth.WithUsers(a.settings.Admins),
			basicauth.WithRealm("relay admin"),
		)
		admin := router.New().Route("/stats", router.Get(web.HandlerFunc(a.stats)))
		r.ScopeMergeWith("/admin", admin, auth)
		if a.settings.Debug.Pprof {
			r.ScopeMergeWith("/debug", server.DebugRoutes(), auth)
		}
	}

	return r, nil
}

// handler wraps r in the middleware stack, outermost first. Errors become
// responses inside the security and CORS layers.
func (a *app) handler(r *router.Router) web.Handler {
	s := a.settings
	quiet := []string{"/healthz", "/readyz", "/metrics"}

	corsOpts := []cors.Option{cors.WithAllowedOrigins(s.CORS.Origins...)}
	if len(s.CORS.Origins) == 0 {
		corsOpts = []cors.Option{cors.WithAllowAllOrigins(true)}
	}
	securityPreset := security.DevelopmentPreset()
	if s.Service.Environment == "production" {
		securityPreset = security.ProductionPreset()
	}

	return web.Wrap(r,
		recovery.New(recovery.WithLogger(a.logger)),
		requestid.New(),
		logging.Middleware(a.logger),
		accesslog.New(accesslog.WithLogger(a.logger), accesslog.WithSkipPaths(quiet...)),
		tracing.Middleware(a.tracer, tracing.WithExcludePaths(quiet...)),
		metrics.Middleware(a.metrics, metrics.WithExcludePaths("/metrics")),
		security.New(securityPreset),
		cors.New(corsOpts...),
		catch.New(nil),
		trailingslash.New(),
		ratelimit.New(
			ratelimit.WithRequestsPerSecond(s.RateLimit.RPS),
			ratelimit.WithBurst(s.RateLimit.Burst),
			ratelimit.WithSkipPaths(quiet...),
			ratelimit.WithLogger(a.logger),
		),
		compression.New(compression.WithExcludePaths(streamPaths...)),
		timeout.New(s.Timeout, timeout.WithSkipPaths(streamPaths...)),
	)
}

func hello(_ context.Context, _ *http.Request, name string) (*web.Response, error) {
	return web.Textf(http.StatusOK, "hello, %s\n", name), nil
}

type echoRequest struct {
	Message string `json:"message" validate:"required,max=256"`
}

type echoResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (a *app) echo(ctx context.Context, _ *http.Request, req echoRequest) (*web.Response, error) {
	return web.JSON(http.StatusOK, echoResponse{Message: req.Message, RequestID: requestid.Get(ctx)})
}

type uploaded struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// upload reports the files sent under the "file" field.
func (a *app) upload(_ context.Context, _ *http.Request, form *extract.MultipartForm) (*web.Response, error) {
	defer func() {
		if err := form.RemoveAll(); err != nil {
			a.logger.Warn("removing upload files failed", "error", err)
		}
	}()

	files, err := form.Files("file")
	if err != nil {
		return nil, err
	}
	out := make([]uploaded, 0, len(files))
	for _, f := range files {
		out = append(out, uploaded{Name: f.Name, Size: f.Size, ContentType: f.ContentType})
	}

	return web.JSON(http.StatusOK, map[string]any{"files": out, "label": form.Value("label")})
}

type serviceInfo struct {
	Name        string `json:"name" yaml:"name" msgpack:"name"`
	Version     string `json:"version" yaml:"version" msgpack:"version"`
	Environment string `json:"environment" yaml:"environment" msgpack:"environment"`
	Uptime      string `json:"uptime" yaml:"uptime" msgpack:"uptime"`
}

// info answers in YAML or MessagePack when asked to, JSON otherwise.
func (a *app) info(_ context.Context, r *http.Request) (*web.Response, error) {
	v := serviceInfo{
		Name:        a.settings.Service.Name,
		Version:     version,
		Environment: a.settings.Service.Environment,
		Uptime:      a.now().Sub(a.started).Round(time.Second).String(),
	}

	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "yaml"):
		return web.YAML(http.StatusOK, v)
	case strings.Contains(accept, "msgpack"):
		return web.MsgPack(http.StatusOK, v)
	default:
		return web.JSON(http.StatusOK, v)
	}
}

func (a *app) stats(ctx context.Context, _ *http.Request) (*web.Response, error) {
	return web.JSON(http.StatusOK, map[string]any{
		"user":    basicauth.Username(ctx),
		"uptime":  a.now().Sub(a.started).Round(time.Second).String(),
		"healthy": !a.health.Draining(),
	})
}

// socket echoes every message back to the sender.
func (a *app) socket(ctx context.Context, r *http.Request) (*web.Response, error) {
	up, err := ws.NewUpgrade(r, ws.WithErrorHandler(func(err error) {
		a.logger.Warn("websocket hand-off failed", "error", err)
	}))
	if err != nil {
		return nil, err
	}

	return up.OnUpgrade(ctx, func(ctx context.Context, conn *ws.Conn) {
		for {
			msg, err := conn.Recv(ctx)
			if err != nil {
				if !errors.Is(err, ws.ErrClosed) {
					a.logger.Debug("websocket receive failed", "error", err, "remote", conn.RemoteAddr().String())
				}
				return
			}
			if err := conn.Send(msg); err != nil {
				return
			}
		}
	})
}

type clockQuery struct {
	Count int           `query:"count"`
	Every time.Duration `query:"every"`
}

// clock streams the time as server-sent events. count limits the number
// of events; zero streams until the client leaves.
func (a *app) clock(ctx context.Context, _ *http.Request, q clockQuery) (*web.Response, error) {
	if q.Count < 0 {
		return nil, &extract.Error{Kind: extract.ErrInvalid, Source: extract.SourceQuery, Name: "count"}
	}
	every := q.Every
	if every <= 0 {
		every = time.Second
	}

	events := make(chan sse.Event)
	go func() {
		defer close(events)
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for i := 0; q.Count == 0 || i < q.Count; i++ {
			if i > 0 {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				}
			}
			ev := sse.NewEvent().ID(strconv.Itoa(i)).Name("tick").Data(a.now().UTC().Format(time.RFC3339)).MustBuild()
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sse.Response(events, sse.WithKeepAlive(sse.DefaultKeepAliveInterval, "keep-alive")), nil
}
