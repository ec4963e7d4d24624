package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/electron/internal/admin"
	"github.com/GriffinCanCode/AgentOS/electron/internal/client"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/electron/internal/transport"
)

type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	var (
		file       = flag.String("f", "", "YAML launch file")
		executable = flag.String("exec", "", "Application executable (overrides the launch file)")
		window     = flag.Bool("window", false, "Wait for the first window and print its title")
		keep       = flag.Bool("keep", false, "Leave the application running")
		sessions   = flag.Bool("sessions", false, "List the target's sessions and exit")
		args       stringList
		exprs      stringList
	)
	flag.Var(&args, "arg", "Application argument (repeatable)")
	flag.Var(&exprs, "e", "Expression to evaluate (repeatable)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if *sessions {
		if err := listSessions(cfg.Client); err != nil {
			logger.Fatal("List sessions failed", zap.Error(err))
		}
		return
	}

	launch := &launchFile{}
	if *file != "" {
		if launch, err = readLaunchFile(*file); err != nil {
			logger.Fatal("Failed to read launch file", zap.String("path", *file), zap.Error(err))
		}
	}
	if *executable != "" {
		launch.Executable = *executable
	}
	if len(args) > 0 {
		launch.Args = args
	}
	launch.Window = launch.Window || *window
	launch.Evaluate = append(launch.Evaluate, exprs...)
	if launch.Executable == "" {
		logger.Fatal("No executable given; use -exec or a launch file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Client, logger, launch, *keep); err != nil {
		logger.Error("Run failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ClientConfig, logger *logging.Logger, launch *launchFile, keep bool) error {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := transport.WaitReady(connectCtx, cfg.HealthURL, transport.ReadyOptions{Logger: logger.Logger}); err != nil {
		return err
	}
	traceID := tracing.NewTraceID()
	header := http.Header{}
	tracing.InjectTraceContext(tracing.WithTraceID(connectCtx, traceID), header)
	logger = logger.With(zap.String("trace_id", string(traceID)))

	ws, err := transport.DialWebSocket(connectCtx, cfg.Endpoint, header)
	if err != nil {
		return err
	}

	breaker := resilience.New("transport", resilience.Settings{
		Threshold: cfg.BreakerThreshold,
		Cooldown:  cfg.BreakerCooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Breaker state changed", zap.String("breaker", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	conn, err := client.Connect(connectCtx, ws,
		client.WithLogger(logger),
		client.WithBreaker(breaker),
		client.WithRateLimit(rate.Limit(cfg.CallRate), cfg.CallBurst),
		client.WithDefaultTimeout(cfg.DefaultTimeout),
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	opts := launch.options()
	opts.Logger = logger.Logger
	app, err := conn.Electron().Launch(ctx, launch.Executable, opts)
	if err != nil {
		return err
	}

	if launch.Window {
		page, err := app.FirstWindow(ctx)
		if err != nil {
			return fmt.Errorf("first window: %w", err)
		}
		title, err := page.Title(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("window %s %q\n", page.URL(), title)
	}

	for _, expr := range launch.Evaluate {
		value, err := app.Evaluate(ctx, expr)
		if err != nil {
			var callErr *client.RemoteCallError
			if errors.As(err, &callErr) && callErr.Stack != "" {
				logger.Debug("Script stack", zap.String("stack", callErr.Stack))
			}
			return fmt.Errorf("evaluate %q: %w", expr, err)
		}
		out, err := sonic.Marshal(printable(value))
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}

	if keep {
		<-ctx.Done()
		return nil
	}
	return app.Close(ctx)
}

func listSessions(cfg config.ClientConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	adminCfg := admin.DefaultConfig()
	adminCfg.BaseURL = cfg.AdminURL
	sessions, err := admin.New(adminCfg).Sessions(ctx)
	if err != nil {
		return err
	}
	out, err := sonic.ConfigStd.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// printable replaces values JSON cannot carry with their script spelling.
func printable(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = printable(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			out[k] = printable(item)
		}
		return out
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return x
	case protocol.UndefinedValue:
		return "undefined"
	}
	return v
}
