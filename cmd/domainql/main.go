package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hanpama/domainql/internal/assemble"
	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/domain"
	"github.com/hanpama/domainql/internal/effects"
	"github.com/hanpama/domainql/internal/eventbus"
	"github.com/hanpama/domainql/internal/executor"
	"github.com/hanpama/domainql/internal/otel"
	"github.com/hanpama/domainql/internal/pubsub"
	"github.com/hanpama/domainql/internal/reqctx"
	"github.com/hanpama/domainql/internal/resolve"
	"github.com/hanpama/domainql/internal/schema"
	"github.com/hanpama/domainql/internal/server"
)

const rootUsage = `domainql - declarative domain to GraphQL projector & tools

USAGE:
  domainql <command> [flags]

COMMANDS:
  serve        Run the GraphQL server for a domain descriptor
  render-sdl   Generate the GraphQL SDL for a domain descriptor
  help         Show help for any command
`

const serveUsage = `serve FLAGS:
  -domain.descriptor <file>    Domain descriptor YAML (required)
  -domain.data <file>          Seed data YAML (optional)
  -domain.state <file>         Seed state YAML (optional)
  -domain.subscriptions <bool> Enable the Subscription root (default: true)
  -server.addr <addr>          HTTP listen address (default: :8080)
  -server.pretty               Pretty-print JSON responses
  -server.timeout <duration>   Per-request timeout, e.g. 10s (default: 10s)
  -otel.endpoint <addr>        OTLP collector endpoint
  -otel.service <name>         OpenTelemetry service name (default: domainql)
`

const renderSDLUsage = `render-sdl FLAGS:
  -domain.descriptor <file>    Domain descriptor YAML (required)
  -domain.subscriptions <bool> Include the Subscription root (default: true)
  -out <file>                  Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("domainql", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	switch cmd := remaining[0]; cmd {
	case "serve":
		return cmdServe(remaining[1:])
	case "render-sdl":
		return cmdRenderSDL(remaining[1:])
	case "help":
		return cmdHelp(remaining[1:])
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "render-sdl":
		fmt.Print(renderSDLUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdServe(args []string) error {
	descriptorFile := ""
	dataFile := ""
	stateFile := ""
	subscriptions := true
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	otelEndpoint := ""
	otelService := "domainql"

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&descriptorFile, "domain.descriptor", descriptorFile, "Domain descriptor YAML")
	fs.StringVar(&dataFile, "domain.data", dataFile, "Seed data YAML")
	fs.StringVar(&stateFile, "domain.state", stateFile, "Seed state YAML")
	fs.BoolVar(&subscriptions, "domain.subscriptions", subscriptions, "Enable the Subscription root")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if descriptorFile == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-domain.descriptor is required")
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "domainql").Logger()

	desc, err := descriptor.LoadFile(descriptorFile)
	if err != nil {
		return fmt.Errorf("load descriptor: %w", err)
	}
	data, err := loadSeedFile(dataFile)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	state, err := loadSeedFile(stateFile)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	eventbus.Use(eventbus.New())
	if otelEndpoint != "" {
		shutdown, err := otel.Setup(context.Background(), otelEndpoint, otelService)
		if err != nil {
			return fmt.Errorf("otel setup: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	result, err := assemble.Build(desc, assemble.Config{EnableSubscriptions: subscriptions})
	if err != nil {
		return fmt.Errorf("assemble schema: %w", err)
	}

	runtime := domain.NewMemory(desc, data, state)
	broker := pubsub.NewBroker(log)
	factory := resolve.NewFactory(desc, result.Names, effects.New(log), log)
	exec := executor.New(result.Schema, factory.Build())

	bundle := func(r *http.Request) reqctx.Bundle {
		return reqctx.Bundle{Runtime: runtime, Descriptor: desc, Broker: broker}
	}

	var sopts []server.Option
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	h, err := server.New(exec, bundle, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Info().Str("addr", addr).Str("domain", desc.ID).Msg("GraphQL server listening")
	return http.ListenAndServe(addr, mux)
}

func cmdRenderSDL(args []string) error {
	descriptorFile := ""
	subscriptions := true
	outFile := ""

	fs := flag.NewFlagSet("render-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&descriptorFile, "domain.descriptor", descriptorFile, "Domain descriptor YAML")
	fs.BoolVar(&subscriptions, "domain.subscriptions", subscriptions, "Include the Subscription root")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, renderSDLUsage)
		return err
	}
	if descriptorFile == "" {
		fmt.Fprint(os.Stderr, renderSDLUsage)
		return fmt.Errorf("-domain.descriptor is required")
	}

	desc, err := descriptor.LoadFile(descriptorFile)
	if err != nil {
		return fmt.Errorf("load descriptor: %w", err)
	}
	result, err := assemble.Build(desc, assemble.Config{EnableSubscriptions: subscriptions})
	if err != nil {
		return fmt.Errorf("assemble schema: %w", err)
	}

	sdl := schema.Render(result.Schema)
	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

func loadSeedFile(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
