// Package mongodb implements the MCP tool handlers over a MongoDB database.
// Handlers keep driver calls thin: inbound filters pass through the safety
// layer's ObjectID coercion and operation guard, outbound payloads through
// its redaction and verbosity filters.
package mongodb

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vinodismyname/mcpmongo/config"
	"github.com/vinodismyname/mcpmongo/internal/runtime"
	"github.com/vinodismyname/mcpmongo/internal/safety"
	"github.com/vinodismyname/mcpmongo/internal/security"
	"github.com/vinodismyname/mcpmongo/pkg/mcperr"
)

// Service owns the database handle and the per-call safety configuration
// shared by every tool handler.
type Service struct {
	db        *mongo.Database
	limits    runtime.Limits
	ctrl      *runtime.Controller
	sec       *security.Manager
	logger    zerolog.Logger
	readOnly  bool
	verbosity safety.Verbosity
}

// ServiceOptions carries the optional safety configuration for a Service.
type ServiceOptions struct {
	ReadOnly         bool
	DefaultVerbosity safety.Verbosity
}

// NewService constructs a Service. The security manager may be nil when
// exports are disabled; ctrl bounds concurrent export jobs.
func NewService(db *mongo.Database, limits runtime.Limits, ctrl *runtime.Controller, sec *security.Manager, logger zerolog.Logger, opts ServiceOptions) *Service {
	verbosity := opts.DefaultVerbosity
	if verbosity == "" {
		verbosity = safety.ParseVerbosity(config.DefaultVerbosity)
	}
	return &Service{
		db:        db,
		limits:    limits,
		ctrl:      ctrl,
		sec:       sec,
		logger:    logger,
		readOnly:  opts.ReadOnly,
		verbosity: verbosity,
	}
}

// Connect dials MongoDB and verifies the connection with a bounded ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, config.DefaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, config.DefaultPingTimeout)
	defer cancelPing()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}
	return client, nil
}

// Database exposes the bound database name for logging and discovery.
func (s *Service) Database() string {
	return s.db.Name()
}

// verbosityFor resolves the caller-selected tier, falling back to the
// configured default when the argument is empty.
func (s *Service) verbosityFor(arg string) safety.Verbosity {
	if arg == "" {
		return s.verbosity
	}
	return safety.ParseVerbosity(arg)
}

// jsonResult serializes a payload as relaxed Extended JSON and enforces the
// configured payload cap.
func (s *Service) jsonResult(payload any) *mcp.CallToolResult {
	b, err := bson.MarshalExtJSON(payload, false, false)
	if err != nil {
		return mcperr.Wrapf(mcperr.CommandFailed, "serialize response: %v", err)
	}
	if s.limits.MaxPayloadBytes > 0 && len(b) > s.limits.MaxPayloadBytes {
		return mcperr.Wrapf(mcperr.PayloadTooLarge, "response is %d bytes (max %d)", len(b), s.limits.MaxPayloadBytes)
	}
	return mcp.NewToolResultText(string(b))
}

// guardWrite enforces the read-only mode and the empty-filter guard for a
// mutating operation. It returns a non-nil tool error when the call must not
// proceed.
func (s *Service) guardWrite(filter bson.M, allowEmptyFilter bool, operation, collection string) *mcp.CallToolResult {
	if s.readOnly {
		return mcperr.Wrapf(mcperr.ReadOnly, "%s is disabled in read-only mode", operation)
	}
	if decision := safety.ShouldBlockFilter(filter, allowEmptyFilter, operation); decision.Blocked {
		s.logger.Warn().Str("operation", operation).Str("collection", collection).Msg("write blocked by empty-filter guard")
		return mcperr.New(mcperr.EmptyFilterBlocked, decision.Reason)
	}
	return nil
}
