// Package main runs the Slack agent as an A2A server with MCP tool
// integration.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/vinayprograms/slackagent/agent"
	"github.com/vinayprograms/slackagent/api"
	"github.com/vinayprograms/slackagent/auth"
	"github.com/vinayprograms/slackagent/config"
	"github.com/vinayprograms/slackagent/llm"
	"github.com/vinayprograms/slackagent/logging"
	"github.com/vinayprograms/slackagent/ratelimit"
	"github.com/vinayprograms/slackagent/shutdown"
	"github.com/vinayprograms/slackagent/slack"
	"github.com/vinayprograms/slackagent/tasks"
	"github.com/vinayprograms/slackagent/telemetry"
	"github.com/vinayprograms/slackagent/tools"
)

// Shutdown phases. Lower phases shut down first: stop accepting
// requests, then drain the executor, then flush telemetry.
const (
	phaseServer    = 10
	phaseExecutor  = 20
	phaseTelemetry = 30
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	log := logging.New().WithComponent("main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log.SetLevel(logging.ParseLevel(cfg.Logging.Level))

	if err := run(cfg, log); err != nil {
		log.Error("slack agent exited with error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logging.Logger) error {
	ctx := context.Background()

	coord := shutdown.NewCoordinator(shutdown.Config{
		DefaultTimeout: 30 * time.Second,
		Logger:         log,
	})

	// Telemetry is optional; the rest of the service runs without it.
	var tracer *telemetry.Tracer
	if cfg.Telemetry.Enabled {
		provider, err := telemetry.InitProvider(ctx, telemetry.ProviderConfig{
			ServiceName:    "slack-agent",
			ServiceVersion: api.Version,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			Debug:          cfg.App.Debug,
		})
		if err != nil {
			log.Warn("telemetry disabled", map[string]interface{}{"error": err.Error()})
		} else {
			tracer = provider.Tracer()
			coord.RegisterFuncWithPhase("telemetry", provider.Shutdown, phaseTelemetry)
		}
	}

	// Rate limits for inbound submissions and outbound Slack calls.
	limiter := ratelimit.NewLimiter()
	if n := cfg.RateLimit.TaskSubmitsPerMinute; n > 0 {
		limiter.SetCapacity(ratelimit.ResourceTaskSubmit, n, time.Minute)
	}
	if n := cfg.RateLimit.SlackCallsPerMinute; n > 0 {
		limiter.SetCapacity(ratelimit.ResourceSlackAPI, n, time.Minute)
	}

	// Slack client and tool registry.
	creds := auth.NewBearerToken(cfg.Slack.BotToken)
	clientOpts := []slack.ClientOption{slack.WithRateLimiter(limiter)}
	if cfg.Slack.BaseURL != "" {
		clientOpts = append(clientOpts, slack.WithBaseURL(cfg.Slack.BaseURL))
	}
	client := slack.NewClient(creds, clientOpts...)
	registry := tools.NewSlackRegistry(client)

	// LLM provider with tracing.
	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	traced := llm.WithTracing(provider, cfg.LLM.Provider, tracer)

	// Agent and executor.
	slackAgent, err := agent.New(traced, registry,
		agent.WithSystemPrompt(cfg.App.SystemPrompt),
		agent.WithLogger(log),
		agent.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	executor := tasks.NewExecutor(slackAgent,
		tasks.WithRetryConfig(cfg.RetryPolicy()),
		tasks.WithLogger(log),
	)
	if err := executor.Start(ctx); err != nil {
		return err
	}
	coord.RegisterFuncWithPhase("executor", executor.Stop, phaseExecutor)

	// HTTP server.
	server := api.NewServer(executor, slackAgent, registry,
		api.WithLogger(log),
		api.WithMetrics(),
		api.WithCORSOrigins(cfg.API.CORSOrigins),
		api.WithRateLimiter(limiter),
	)
	coord.RegisterFuncWithPhase("http-server", server.Shutdown, phaseServer)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(cfg.API.Host, cfg.API.Port)
	}()

	log.Info("slack agent started", map[string]interface{}{
		"host":  cfg.API.Host,
		"port":  cfg.API.Port,
		"env":   cfg.App.Env,
		"tools": len(registry.Names()),
	})

	coord.HandleSignals()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Server died on its own; still drain everything else.
			coord.ShutdownWithTimeout(0)
			return err
		}
		<-coord.Done()
	case <-coord.Done():
	}

	log.Info("slack agent shutdown complete")
	return coord.Err()
}
