package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/mcpmongo/config"
	"github.com/vinodismyname/mcpmongo/internal/mongodb"
	"github.com/vinodismyname/mcpmongo/internal/registry"
	"github.com/vinodismyname/mcpmongo/internal/runtime"
	"github.com/vinodismyname/mcpmongo/internal/safety"
	"github.com/vinodismyname/mcpmongo/internal/security"
	"github.com/vinodismyname/mcpmongo/internal/telemetry"
	"github.com/vinodismyname/mcpmongo/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "mcpmongo-server").Logger()
	ctx := logger.WithContext(context.Background())

	uri := os.Getenv("MCPMONGO_URI")
	if uri == "" {
		logger.Error().Msg("MCPMONGO_URI not set")
		fmt.Fprintln(os.Stderr, "missing connection string; set MCPMONGO_URI")
		os.Exit(1)
	}
	dbName := os.Getenv("MCPMONGO_DATABASE")
	if dbName == "" {
		logger.Error().Msg("MCPMONGO_DATABASE not set")
		fmt.Fprintln(os.Stderr, "missing database name; set MCPMONGO_DATABASE")
		os.Exit(1)
	}

	client, err := mongodb.Connect(ctx, uri)
	if err != nil {
		logger.Error().Err(err).Msg("mongodb: connection failed")
		fmt.Fprintln(os.Stderr, "could not reach MongoDB; check MCPMONGO_URI")
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("mongodb: disconnect failed")
		}
	}()
	logger.Info().Str("database", dbName).Msg("connected to MongoDB")

	// Security: export allow-list (exports stay disabled when unset)
	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager from env")
		fmt.Fprintln(os.Stderr, "invalid export configuration; check MCPMONGO_EXPORT_DIRS")
		os.Exit(1)
	}
	if secMgr.ExportsEnabled() {
		logger.Info().Strs("export_dirs", secMgr.AllowedDirectories()).Msg("export allow-list configured")
	} else {
		logger.Info().Msg("exports disabled; set MCPMONGO_EXPORT_DIRS to enable")
	}

	limits := runtime.NewLimits(config.DefaultMaxConcurrentRequests, config.DefaultMaxConcurrentExports)
	runtimeController := runtime.NewController(limits)

	readOnlyFilter := registry.NewReadOnlyToolFilterFromEnv()

	svc := mongodb.NewService(client.Database(dbName), limits, runtimeController, secMgr, logger, mongodb.ServiceOptions{
		ReadOnly:         readOnlyFilter.ReadOnly(),
		DefaultVerbosity: safety.ParseVerbosity(os.Getenv("MCPMONGO_VERBOSITY")),
	})

	toolRegistry := registry.New()

	// The middleware consults the registry lazily, so it can be installed
	// before the tool set is registered.
	limiter := safety.NewAdminRateLimiter(config.DefaultAdminRateLimit, config.DefaultAdminRateWindow, nil)
	runtimeMW := runtime.NewMiddleware(runtimeController, limiter, toolRegistry)

	srv := server.NewMCPServer(
		"MCP MongoDB Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.NewServerHooks(logger)),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return readOnlyFilter.FilterTools(ctx, tools) }),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
	)
	registry.RegisterTools(srv, toolRegistry, svc)

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Str("database", dbName).
		Bool("read_only", readOnlyFilter.ReadOnly()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("admin_rate_limit", limiter.Limit()).
		Dur("admin_rate_window", limiter.Window()).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		if err := server.ServeStdio(srv); err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// If no transport flags provided, print usage and exit non-zero
	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}
