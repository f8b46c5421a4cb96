package mongodb

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinodismyname/mcpmongo/config"
	"github.com/vinodismyname/mcpmongo/internal/safety"
	"github.com/vinodismyname/mcpmongo/pkg/mcperr"
	"github.com/vinodismyname/mcpmongo/pkg/validation"
)

// --- Input Schemas (typed for discovery) ---

// ListCollectionsInput defines parameters for collection discovery.
type ListCollectionsInput struct {
	Filter string `json:"filter,omitempty" validate:"omitempty,extjson" jsonschema_description:"Optional Extended JSON filter on collection metadata"`
}

// CreateCollectionInput defines parameters for creating a collection.
type CreateCollectionInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Name of the collection to create"`
	Capped     bool   `json:"capped,omitempty" jsonschema_description:"Create a capped collection"`
	SizeBytes  int64  `json:"size_bytes,omitempty" jsonschema_description:"Maximum size in bytes (required when capped)"`
	MaxDocs    int64  `json:"max_docs,omitempty" jsonschema_description:"Maximum document count for a capped collection"`
}

// DropCollectionInput defines parameters for dropping a collection.
type DropCollectionInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Name of the collection to drop"`
	Confirm    bool   `json:"confirm,omitempty" jsonschema_description:"Set true to actually drop; false previews the impact"`
}

// CollectionStatsInput selects a collection and a verbosity tier.
type CollectionStatsInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Collection to inspect"`
	Verbosity  string `json:"verbosity,omitempty" validate:"omitempty,oneof=minimal standard full" jsonschema_description:"Verbosity tier: minimal, standard, or full"`
}

// DatabaseStatsInput selects a verbosity tier for dbStats.
type DatabaseStatsInput struct {
	Verbosity string `json:"verbosity,omitempty" validate:"omitempty,oneof=minimal standard full" jsonschema_description:"Verbosity tier: minimal, standard, or full"`
}

// ServerStatusInput toggles the large optional serverStatus sections.
type ServerStatusInput struct {
	IncludeWiredTiger    bool `json:"include_wired_tiger,omitempty" jsonschema_description:"Keep the wiredTiger section"`
	IncludeRepl          bool `json:"include_replication,omitempty" jsonschema_description:"Keep the repl section"`
	IncludeStorageEngine bool `json:"include_storage_engine,omitempty" jsonschema_description:"Keep the storageEngine section"`
}

// ProfilerEntriesInput bounds and shapes a system.profile read.
type ProfilerEntriesInput struct {
	Limit     int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500" jsonschema_description:"Maximum entries to return"`
	Verbosity string `json:"verbosity,omitempty" validate:"omitempty,oneof=minimal standard full" jsonschema_description:"Verbosity tier: minimal, standard, or full"`
}

// CurrentOperationsInput bounds and shapes a currentOp read.
type CurrentOperationsInput struct {
	MinRunningSeconds   int    `json:"min_running_seconds,omitempty" validate:"omitempty,min=0" jsonschema_description:"Only include operations running at least this long"`
	IncludeQueryDetails bool   `json:"include_query_details,omitempty" jsonschema_description:"Keep the query and lockStats fields"`
	Verbosity           string `json:"verbosity,omitempty" validate:"omitempty,oneof=minimal standard full" jsonschema_description:"Verbosity tier: minimal, standard, or full"`
}

// ListIndexesInput selects a collection for index discovery.
type ListIndexesInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Collection whose indexes to list"`
}

// CreateIndexInput defines parameters for index creation.
type CreateIndexInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Collection to index"`
	Keys       string `json:"keys" validate:"required,extjson" jsonschema_description:"Extended JSON key specification, e.g. {\"email\": 1}"`
	Unique     bool   `json:"unique,omitempty" jsonschema_description:"Create a unique index"`
	Name       string `json:"name,omitempty" jsonschema_description:"Optional index name"`
}

// --- Handlers ---

// HandleListCollections lists collection names, optionally filtered.
func (s *Service) HandleListCollections(ctx context.Context, req mcp.CallToolRequest, in ListCollectionsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	filter, err := validation.ParseFilter(in.Filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.InvalidFilter, "%v", err), nil
	}
	names, err := s.db.ListCollectionNames(ctx, filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.CommandFailed, "list collections: %v", err), nil
	}
	return s.jsonResult(bson.M{"database": s.db.Name(), "collections": names, "count": len(names)}), nil
}

// HandleCreateCollection creates a collection, optionally capped.
func (s *Service) HandleCreateCollection(ctx context.Context, req mcp.CallToolRequest, in CreateCollectionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	if s.readOnly {
		return mcperr.Wrapf(mcperr.ReadOnly, "create_collection is disabled in read-only mode"), nil
	}
	opts := options.CreateCollection()
	if in.Capped {
		if in.SizeBytes <= 0 {
			return mcperr.New(mcperr.Validation, "VALIDATION: size_bytes must be positive for a capped collection"), nil
		}
		opts.SetCapped(true).SetSizeInBytes(in.SizeBytes)
		if in.MaxDocs > 0 {
			opts.SetMaxDocuments(in.MaxDocs)
		}
	}
	if err := s.db.CreateCollection(ctx, in.Collection, opts); err != nil {
		return mcperr.Wrapf(mcperr.CommandFailed, "create collection %q: %v", in.Collection, err), nil
	}
	s.logger.Info().Str("collection", in.Collection).Bool("capped", in.Capped).Msg("collection created")
	return s.jsonResult(bson.M{"created": in.Collection, "capped": in.Capped}), nil
}

// HandleDropCollection drops a collection. Without confirm it only previews
// the impact, reusing the destructive-operation warning tiers.
func (s *Service) HandleDropCollection(ctx context.Context, req mcp.CallToolRequest, in DropCollectionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	if s.readOnly {
		return mcperr.Wrapf(mcperr.ReadOnly, "drop_collection is disabled in read-only mode"), nil
	}
	if !in.Confirm {
		count, err := s.db.Collection(in.Collection).EstimatedDocumentCount(ctx)
		if err != nil {
			return mcperr.Wrapf(mcperr.CommandFailed, "count %q: %v", in.Collection, err), nil
		}
		preview := bson.M{
			"collection": in.Collection,
			"documents":  count,
			"dropped":    false,
			"hint":       "call again with confirm: true to drop",
		}
		if warning := safety.OperationWarning(count, "delete"); warning != "" {
			preview["warning"] = warning
		}
		return s.jsonResult(preview), nil
	}
	if err := s.db.Collection(in.Collection).Drop(ctx); err != nil {
		return mcperr.Wrapf(mcperr.CommandFailed, "drop collection %q: %v", in.Collection, err), nil
	}
	s.logger.Info().Str("collection", in.Collection).Msg("collection dropped")
	return s.jsonResult(bson.M{"collection": in.Collection, "dropped": true}), nil
}

// HandleCollectionStats returns collStats trimmed to the selected verbosity
// tier and compacted (zero-valued metrics removed below the full tier).
func (s *Service) HandleCollectionStats(ctx context.Context, req mcp.CallToolRequest, in CollectionStatsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	var stats bson.M
	cmd := bson.D{{Key: "collStats", Value: in.Collection}}
	if err := s.db.RunCommand(ctx, cmd).Decode(&stats); err != nil {
		if mcperr.IsNamespaceNotFound(err) {
			return mcperr.Wrapf(mcperr.InvalidCollection, "collection %q not found", in.Collection), nil
		}
		return mcperr.Wrapf(mcperr.CommandFailed, "collStats %q: %v", in.Collection, err), nil
	}
	tier := s.verbosityFor(in.Verbosity)
	out := safety.FilterCollectionStats(stats, tier)
	if tier != safety.VerbosityFull {
		out = safety.ExcludeZeroMetrics(out)
	}
	return s.jsonResult(out), nil
}

// HandleDatabaseStats returns dbStats trimmed to the selected verbosity tier.
func (s *Service) HandleDatabaseStats(ctx context.Context, req mcp.CallToolRequest, in DatabaseStatsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	var stats bson.M
	cmd := bson.D{{Key: "dbStats", Value: 1}}
	if err := s.db.RunCommand(ctx, cmd).Decode(&stats); err != nil {
		return mcperr.Wrapf(mcperr.CommandFailed, "dbStats: %v", err), nil
	}
	tier := s.verbosityFor(in.Verbosity)
	out := safety.FilterDatabaseStats(stats, tier)
	if tier != safety.VerbosityFull {
		out = safety.ExcludeZeroMetrics(out)
	}
	return s.jsonResult(out), nil
}

// HandleServerStatus returns serverStatus with the large optional sections
// removed unless requested, and sensitive fields redacted.
func (s *Service) HandleServerStatus(ctx context.Context, req mcp.CallToolRequest, in ServerStatusInput) (*mcp.CallToolResult, error) {
	var status bson.M
	cmd := bson.D{{Key: "serverStatus", Value: 1}}
	if err := s.db.RunCommand(ctx, cmd).Decode(&status); err != nil {
		return mcperr.Wrapf(mcperr.CommandFailed, "serverStatus: %v", err), nil
	}
	out := safety.FilterServerStatus(status, safety.ServerStatusOptions{
		IncludeWiredTiger:    in.IncludeWiredTiger,
		IncludeRepl:          in.IncludeRepl,
		IncludeStorageEngine: in.IncludeStorageEngine,
	})
	return s.jsonResult(safety.RedactSensitive(out)), nil
}

// HandleProfilerEntries reads recent system.profile documents trimmed to the
// selected verbosity tier.
func (s *Service) HandleProfilerEntries(ctx context.Context, req mcp.CallToolRequest, in ProfilerEntriesInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = config.DefaultProfilerEntryCap
	}
	if limit > s.limits.MaxResultDocs {
		limit = s.limits.MaxResultDocs
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "ts", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.db.Collection("system.profile").Find(ctx, bson.M{}, opts)
	if err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "read system.profile: %v", err), nil
	}
	var entries []bson.M
	if err := cur.All(ctx, &entries); err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "decode system.profile: %v", err), nil
	}
	tier := s.verbosityFor(in.Verbosity)
	shaped := make([]bson.M, len(entries))
	for i, e := range entries {
		shaped[i] = safety.FilterProfilerEntry(e, tier)
	}
	return s.jsonResult(bson.M{"entries": shaped, "count": len(shaped)}), nil
}

// HandleCurrentOperations lists in-progress operations, optionally restricted
// to long-running ones, shaped by verbosity and the query-detail flag.
func (s *Service) HandleCurrentOperations(ctx context.Context, req mcp.CallToolRequest, in CurrentOperationsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	cmd := bson.D{{Key: "currentOp", Value: 1}}
	if in.MinRunningSeconds > 0 {
		cmd = append(cmd, bson.E{Key: "secs_running", Value: bson.M{"$gte": in.MinRunningSeconds}})
	}
	var res bson.M
	admin := s.db.Client().Database("admin")
	if err := admin.RunCommand(ctx, cmd).Decode(&res); err != nil {
		return mcperr.Wrapf(mcperr.CommandFailed, "currentOp: %v", err), nil
	}
	inprog, _ := res["inprog"].(bson.A)
	tier := s.verbosityFor(in.Verbosity)
	shaped := make([]bson.M, 0, len(inprog))
	for _, raw := range inprog {
		op, ok := raw.(bson.M)
		if !ok {
			continue
		}
		// Tier whitelist first, then the detail flag: it re-attaches the
		// query fields the whitelist dropped, or strips them at full tier.
		shapedOp := safety.FilterSlowOpDetails(safety.FilterSlowOperation(op, tier), in.IncludeQueryDetails)
		if in.IncludeQueryDetails {
			if q, ok := op["query"]; ok {
				shapedOp["query"] = q
			}
			if ls, ok := op["lockStats"]; ok {
				shapedOp["lockStats"] = ls
			}
		}
		shaped = append(shaped, shapedOp)
	}
	return s.jsonResult(bson.M{"operations": shaped, "count": len(shaped)}), nil
}

// HandleListIndexes lists a collection's indexes.
func (s *Service) HandleListIndexes(ctx context.Context, req mcp.CallToolRequest, in ListIndexesInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	cur, err := s.db.Collection(in.Collection).Indexes().List(ctx)
	if err != nil {
		return mcperr.Wrapf(mcperr.IndexFailed, "list indexes for %q: %v", in.Collection, err), nil
	}
	var indexes []bson.M
	if err := cur.All(ctx, &indexes); err != nil {
		return mcperr.Wrapf(mcperr.IndexFailed, "decode indexes: %v", err), nil
	}
	return s.jsonResult(bson.M{"collection": in.Collection, "indexes": indexes, "count": len(indexes)}), nil
}

// HandleCreateIndex creates an index from an Extended JSON key specification.
func (s *Service) HandleCreateIndex(ctx context.Context, req mcp.CallToolRequest, in CreateIndexInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	if s.readOnly {
		return mcperr.Wrapf(mcperr.ReadOnly, "create_index is disabled in read-only mode"), nil
	}
	var keys bson.D
	if err := bson.UnmarshalExtJSON([]byte(in.Keys), true, &keys); err != nil {
		return mcperr.Wrapf(mcperr.Validation, "keys must be an Extended JSON document: %v", err), nil
	}
	idxOpts := options.Index().SetUnique(in.Unique)
	if in.Name != "" {
		idxOpts.SetName(in.Name)
	}
	model := mongo.IndexModel{Keys: keys, Options: idxOpts}
	name, err := s.db.Collection(in.Collection).Indexes().CreateOne(ctx, model)
	if err != nil {
		return mcperr.Wrapf(mcperr.IndexFailed, "create index on %q: %v", in.Collection, err), nil
	}
	s.logger.Info().Str("collection", in.Collection).Str("index", name).Msg("index created")
	return s.jsonResult(bson.M{"collection": in.Collection, "index": name, "unique": in.Unique}), nil
}
