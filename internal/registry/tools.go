package registry

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/mcpmongo/internal/mongodb"
)

// RegisterTools defines the tool surface and binds it to the service
// handlers. Admin-class tools are tagged in the registry so the middleware
// can rate-limit them by name.
func RegisterTools(s *server.MCPServer, reg *Registry, svc *mongodb.Service) {
	// --- Admin & diagnostics ---

	listCollections := mcp.NewTool(
		"list_collections",
		mcp.WithDescription("List collection names in the configured database"),
		mcp.WithString("filter", mcp.Description("Optional Extended JSON filter on collection metadata")),
	)
	s.AddTool(listCollections, mcp.NewTypedToolHandler(svc.HandleListCollections))
	reg.RegisterAdmin(listCollections)

	createCollection := mcp.NewTool(
		"create_collection",
		mcp.WithDescription("Create a collection, optionally capped"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Name of the collection to create")),
		mcp.WithBoolean("capped", mcp.DefaultBool(false), mcp.Description("Create a capped collection")),
		mcp.WithNumber("size_bytes", mcp.Description("Maximum size in bytes (required when capped)")),
		mcp.WithNumber("max_docs", mcp.Description("Maximum document count for a capped collection")),
	)
	s.AddTool(createCollection, mcp.NewTypedToolHandler(svc.HandleCreateCollection))
	reg.RegisterAdmin(createCollection)

	dropCollection := mcp.NewTool(
		"drop_collection",
		mcp.WithDescription("Drop a collection; without confirm it previews the impact"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Name of the collection to drop")),
		mcp.WithBoolean("confirm", mcp.DefaultBool(false), mcp.Description("Set true to actually drop")),
	)
	s.AddTool(dropCollection, mcp.NewTypedToolHandler(svc.HandleDropCollection))
	reg.RegisterAdmin(dropCollection)

	collectionStats := mcp.NewTool(
		"collection_stats",
		mcp.WithDescription("Collection statistics (collStats) trimmed by verbosity tier"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to inspect")),
		mcp.WithString("verbosity", mcp.Description("minimal, standard, or full")),
	)
	s.AddTool(collectionStats, mcp.NewTypedToolHandler(svc.HandleCollectionStats))
	reg.RegisterAdmin(collectionStats)

	databaseStats := mcp.NewTool(
		"database_stats",
		mcp.WithDescription("Database statistics (dbStats) trimmed by verbosity tier"),
		mcp.WithString("verbosity", mcp.Description("minimal, standard, or full")),
	)
	s.AddTool(databaseStats, mcp.NewTypedToolHandler(svc.HandleDatabaseStats))
	reg.RegisterAdmin(databaseStats)

	serverStatus := mcp.NewTool(
		"server_status",
		mcp.WithDescription("Server status with sensitive fields redacted; large sections opt-in"),
		mcp.WithBoolean("include_wired_tiger", mcp.DefaultBool(false), mcp.Description("Keep the wiredTiger section")),
		mcp.WithBoolean("include_replication", mcp.DefaultBool(false), mcp.Description("Keep the repl section")),
		mcp.WithBoolean("include_storage_engine", mcp.DefaultBool(false), mcp.Description("Keep the storageEngine section")),
	)
	s.AddTool(serverStatus, mcp.NewTypedToolHandler(svc.HandleServerStatus))
	reg.RegisterAdmin(serverStatus)

	profilerEntries := mcp.NewTool(
		"get_profiler_entries",
		mcp.WithDescription("Recent profiler entries (system.profile) trimmed by verbosity tier"),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return")),
		mcp.WithString("verbosity", mcp.Description("minimal, standard, or full")),
	)
	s.AddTool(profilerEntries, mcp.NewTypedToolHandler(svc.HandleProfilerEntries))
	reg.RegisterAdmin(profilerEntries)

	currentOps := mcp.NewTool(
		"current_operations",
		mcp.WithDescription("In-progress operations, optionally restricted to long-running ones"),
		mcp.WithNumber("min_running_seconds", mcp.Description("Only include operations running at least this long")),
		mcp.WithBoolean("include_query_details", mcp.DefaultBool(false), mcp.Description("Keep the query and lockStats fields")),
		mcp.WithString("verbosity", mcp.Description("minimal, standard, or full")),
	)
	s.AddTool(currentOps, mcp.NewTypedToolHandler(svc.HandleCurrentOperations))
	reg.RegisterAdmin(currentOps)

	listIndexes := mcp.NewTool(
		"list_indexes",
		mcp.WithDescription("List a collection's indexes"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection whose indexes to list")),
	)
	s.AddTool(listIndexes, mcp.NewTypedToolHandler(svc.HandleListIndexes))
	reg.RegisterAdmin(listIndexes)

	createIndex := mcp.NewTool(
		"create_index",
		mcp.WithDescription("Create an index from an Extended JSON key specification"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to index")),
		mcp.WithString("keys", mcp.Required(), mcp.Description("Extended JSON key spec, e.g. {\"email\": 1}")),
		mcp.WithBoolean("unique", mcp.DefaultBool(false), mcp.Description("Create a unique index")),
		mcp.WithString("name", mcp.Description("Optional index name")),
	)
	s.AddTool(createIndex, mcp.NewTypedToolHandler(svc.HandleCreateIndex))
	reg.RegisterAdmin(createIndex)

	cloneCollection := mcp.NewTool(
		"clone_collection",
		mcp.WithDescription("Copy a collection (or filtered subset) server-side into a new collection"),
		mcp.WithString("source", mcp.Required(), mcp.Description("Collection to copy")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Name for the copy")),
		mcp.WithString("filter", mcp.Description("Optional Extended JSON filter to copy a subset")),
	)
	s.AddTool(cloneCollection, mcp.NewTypedToolHandler(svc.HandleCloneCollection))
	reg.RegisterAdmin(cloneCollection)

	// --- Data access ---

	findDocuments := mcp.NewTool(
		"find_documents",
		mcp.WithDescription("Query documents with a filter; string ObjectIDs in identifier fields are coerced automatically"),
		mcp.WithString("collection", mcp.Description("Collection to query (or supply cursor)")),
		mcp.WithString("filter", mcp.Description("Extended JSON filter")),
		mcp.WithString("sort", mcp.Description("Extended JSON sort spec, e.g. {\"createdAt\": -1}")),
		mcp.WithString("projection", mcp.Description("Extended JSON projection, e.g. {\"email\": 1}")),
		mcp.WithNumber("limit", mcp.Description("Page size (bounded)")),
		mcp.WithString("cursor", mcp.Description("Opaque cursor from a previous page")),
	)
	s.AddTool(findDocuments, mcp.NewTypedToolHandler(svc.HandleFindDocuments))
	reg.Register(findDocuments)

	countDocuments := mcp.NewTool(
		"count_documents",
		mcp.WithDescription("Count documents matching a filter"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to count")),
		mcp.WithString("filter", mcp.Description("Extended JSON filter; empty counts everything")),
	)
	s.AddTool(countDocuments, mcp.NewTypedToolHandler(svc.HandleCountDocuments))
	reg.Register(countDocuments)

	findDuplicates := mcp.NewTool(
		"find_duplicates",
		mcp.WithDescription("Detect duplicate values of a field via aggregation"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to scan")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field whose values to group")),
		mcp.WithNumber("min_count", mcp.Description("Minimum occurrences to report (default 2)")),
		mcp.WithNumber("limit", mcp.Description("Maximum duplicate groups to return")),
	)
	s.AddTool(findDuplicates, mcp.NewTypedToolHandler(svc.HandleFindDuplicates))
	reg.Register(findDuplicates)

	updateDocuments := mcp.NewTool(
		"update_documents",
		mcp.WithDescription("Update all documents matching a filter; empty filters are blocked unless explicitly allowed"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to update")),
		mcp.WithString("filter", mcp.Description("Extended JSON filter")),
		mcp.WithString("update", mcp.Required(), mcp.Description("Extended JSON update document")),
		mcp.WithBoolean("allowEmptyFilter", mcp.DefaultBool(false), mcp.Description("Explicitly allow updating every document")),
		mcp.WithBoolean("dryRun", mcp.DefaultBool(false), mcp.Description("Preview the affected count without writing")),
		mcp.WithBoolean("upsert", mcp.DefaultBool(false), mcp.Description("Insert a document when none matches")),
	)
	s.AddTool(updateDocuments, mcp.NewTypedToolHandler(svc.HandleUpdateDocuments))
	reg.Register(updateDocuments)

	deleteDocuments := mcp.NewTool(
		"delete_documents",
		mcp.WithDescription("Delete all documents matching a filter; empty filters are blocked unless explicitly allowed"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to delete from")),
		mcp.WithString("filter", mcp.Description("Extended JSON filter")),
		mcp.WithBoolean("allowEmptyFilter", mcp.DefaultBool(false), mcp.Description("Explicitly allow deleting every document")),
		mcp.WithBoolean("dryRun", mcp.DefaultBool(false), mcp.Description("Preview the affected count without deleting")),
	)
	s.AddTool(deleteDocuments, mcp.NewTypedToolHandler(svc.HandleDeleteDocuments))
	reg.Register(deleteDocuments)

	exportCollection := mcp.NewTool(
		"export_collection",
		mcp.WithDescription("Export documents to a .json, .csv, or .xlsx file inside an allowed directory"),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to export")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Output file inside an allowed export directory")),
		mcp.WithString("filter", mcp.Description("Optional Extended JSON filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum documents to export (bounded)")),
	)
	s.AddTool(exportCollection, mcp.NewTypedToolHandler(svc.HandleExportCollection))
	reg.Register(exportCollection)
}
