package mcperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.mongodb.org/mongo-driver/mongo"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation        Code = "VALIDATION"
	InvalidCollection Code = "INVALID_COLLECTION"
	InvalidFilter     Code = "INVALID_FILTER"
	CursorInvalid     Code = "CURSOR_INVALID"
	CursorBuildFailed Code = "CURSOR_BUILD_FAILED"

	// Safety gates
	ReadOnly           Code = "READ_ONLY"
	EmptyFilterBlocked Code = "EMPTY_FILTER_BLOCKED"
	RateLimited        Code = "RATE_LIMITED"

	// Resource & Limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	LimitExceeded   Code = "LIMIT_EXCEEDED"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// Database operations
	ConnectFailed Code = "CONNECT_FAILED"
	QueryFailed   Code = "QUERY_FAILED"
	CommandFailed Code = "COMMAND_FAILED"
	WriteFailed   Code = "WRITE_FAILED"
	IndexFailed   Code = "INDEX_FAILED"
	CloneFailed   Code = "CLONE_FAILED"
	ExportFailed  Code = "EXPORT_FAILED"

	// Access
	PermissionDenied Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:        {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},
	InvalidCollection: {Code: InvalidCollection, Message: "collection not found or name invalid", Retryable: true, NextSteps: []string{"Call list_collections to verify names", "Avoid '$' and null characters in names"}},
	InvalidFilter:     {Code: InvalidFilter, Message: "filter is not a valid query document", Retryable: true, NextSteps: []string{"Supply the filter as an Extended JSON object", "Quote operator keys like \"$gt\""}},
	CursorInvalid:     {Code: CursorInvalid, Message: "cursor is invalid for current context", Retryable: true, NextSteps: []string{"Restart pagination from the first page", "Reissue the query if the filter changed"}},
	CursorBuildFailed: {Code: CursorBuildFailed, Message: "failed to encode next page cursor", Retryable: true, NextSteps: []string{"Retry or narrow scope (smaller pages)"}},

	ReadOnly:           {Code: ReadOnly, Message: "server is running in read-only mode", Retryable: false, NextSteps: []string{"Restart without MCPMONGO_READ_ONLY to enable writes"}},
	EmptyFilterBlocked: {Code: EmptyFilterBlocked, Message: "empty filter would affect every document", Retryable: true, NextSteps: []string{"Preview with dryRun: true", "Set allowEmptyFilter: true to proceed deliberately"}},
	RateLimited:        {Code: RateLimited, Message: "admin operation rate limit reached", Retryable: true, NextSteps: []string{"Retry after the window resets"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Narrow the filter or reduce the page size", "Increase the timeout if the workload is legitimate"}},
	LimitExceeded:   {Code: LimitExceeded, Message: "operation exceeded configured limits", Retryable: true, NextSteps: []string{"Reduce limit or export in batches"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "payload exceeds configured size", Retryable: true, NextSteps: []string{"Lower the page size or verbosity tier"}},

	ConnectFailed: {Code: ConnectFailed, Message: "failed to connect to MongoDB", Retryable: true, NextSteps: []string{"Verify MCPMONGO_URI and network reachability"}},
	QueryFailed:   {Code: QueryFailed, Message: "query execution failed", Retryable: true, NextSteps: []string{"Simplify the filter or check index coverage"}},
	CommandFailed: {Code: CommandFailed, Message: "database command failed", Retryable: true, NextSteps: []string{"Check server logs and user privileges"}},
	WriteFailed:   {Code: WriteFailed, Message: "write operation failed", Retryable: false, NextSteps: []string{"Validate the update document and filter"}},
	IndexFailed:   {Code: IndexFailed, Message: "index operation failed", Retryable: false, NextSteps: []string{"Verify key specification and existing indexes"}},
	CloneFailed:   {Code: CloneFailed, Message: "collection clone failed", Retryable: true, NextSteps: []string{"Ensure the target name is unused", "Check disk space on the server"}},
	ExportFailed:  {Code: ExportFailed, Message: "collection export failed", Retryable: true, NextSteps: []string{"Verify the output path is inside an allowed directory", "Reduce the document cap"}},

	PermissionDenied: {Code: PermissionDenied, Message: "insufficient permissions for path or operation", Retryable: false, NextSteps: []string{"Adjust permissions or choose an allowed directory"}},
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	// Append compact nextSteps guidance inline to aid clients lacking structured fields.
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// namespaceNotFoundCode is the server error code for NamespaceNotFound.
const namespaceNotFoundCode = 26

// IsNamespaceNotFound matches the driver's NamespaceNotFound command errors
// that surface when a collection does not exist.
func IsNamespaceNotFound(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == namespaceNotFoundCode || ce.Name == "NamespaceNotFound"
	}
	return false
}
