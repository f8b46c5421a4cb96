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
	"github.com/vinodismyname/mcpmongo/pkg/pagination"
	"github.com/vinodismyname/mcpmongo/pkg/validation"
)

// FindDocumentsInput defines parameters for a paged find.
type FindDocumentsInput struct {
	Collection string `json:"collection" validate:"required_without=Cursor,omitempty,collname" jsonschema_description:"Collection to query"`
	Filter     string `json:"filter,omitempty" validate:"omitempty,extjson" jsonschema_description:"Extended JSON filter; string ObjectIDs in identifier fields are coerced automatically"`
	Sort       string `json:"sort,omitempty" validate:"omitempty,extjson" jsonschema_description:"Extended JSON sort specification, e.g. {\"createdAt\": -1}"`
	Projection string `json:"projection,omitempty" validate:"omitempty,extjson" jsonschema_description:"Extended JSON projection, e.g. {\"email\": 1}"`
	Limit      int64  `json:"limit,omitempty" validate:"omitempty,min=1" jsonschema_description:"Page size (bounded by server limits)"`
	Cursor     string `json:"cursor,omitempty" jsonschema_description:"Opaque cursor from a previous page"`
}

// CountDocumentsInput defines parameters for a filtered count.
type CountDocumentsInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Collection to count"`
	Filter     string `json:"filter,omitempty" validate:"omitempty,extjson" jsonschema_description:"Extended JSON filter; empty counts the whole collection"`
}

// FindDuplicatesInput defines parameters for duplicate-value detection.
type FindDuplicatesInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Collection to scan"`
	Field      string `json:"field" validate:"required" jsonschema_description:"Field whose values to group"`
	MinCount   int64  `json:"min_count,omitempty" validate:"omitempty,min=2" jsonschema_description:"Minimum occurrences to report (default 2)"`
	Limit      int64  `json:"limit,omitempty" validate:"omitempty,min=1,max=1000" jsonschema_description:"Maximum duplicate groups to return"`
}

// clampPageSize bounds a requested page size to the configured maximum;
// non-positive requests get the default page size.
func clampPageSize(requested int64, maxDocs int) int64 {
	if requested <= 0 {
		return config.DefaultFindPageSize
	}
	if requested > int64(maxDocs) {
		return int64(maxDocs)
	}
	return requested
}

// HandleFindDocuments runs a paged find. Filters pass through ObjectID
// coercion; continuation uses an opaque cursor bound to the filter.
func (s *Service) HandleFindDocuments(ctx context.Context, req mcp.CallToolRequest, in FindDocumentsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}

	filter, err := validation.ParseFilter(in.Filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.InvalidFilter, "%v", err), nil
	}
	filter = safety.CoerceObjectIDs(filter)
	filterHash := pagination.FilterHash(in.Filter)

	collection := in.Collection
	var offset int64
	pageSize := clampPageSize(in.Limit, s.limits.MaxResultDocs)

	if in.Cursor != "" {
		cur, err := pagination.DecodeCursor(in.Cursor)
		if err != nil {
			return mcperr.Wrapf(mcperr.CursorInvalid, "%v", err), nil
		}
		if collection == "" {
			collection = cur.C
		}
		if !cur.Matches(s.db.Name(), collection, filterHash) {
			return mcperr.Wrapf(mcperr.CursorInvalid, "cursor was issued for a different query"), nil
		}
		offset = cur.Off
		// Cursors are client-held tokens: re-clamp ps so a forged token
		// cannot request an unbounded page.
		pageSize = clampPageSize(cur.Ps, s.limits.MaxResultDocs)
	}

	findOpts := options.Find().SetLimit(pageSize).SetSkip(offset)
	if in.Sort != "" {
		var sort bson.D
		if err := bson.UnmarshalExtJSON([]byte(in.Sort), true, &sort); err != nil {
			return mcperr.Wrapf(mcperr.Validation, "sort must be an Extended JSON document: %v", err), nil
		}
		findOpts.SetSort(sort)
	}
	if in.Projection != "" {
		var projection bson.D
		if err := bson.UnmarshalExtJSON([]byte(in.Projection), true, &projection); err != nil {
			return mcperr.Wrapf(mcperr.Validation, "projection must be an Extended JSON document: %v", err), nil
		}
		findOpts.SetProjection(projection)
	}

	cur, err := s.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "find in %q: %v", collection, err), nil
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "decode documents: %v", err), nil
	}

	out := bson.M{
		"collection": collection,
		"documents":  docs,
		"returned":   len(docs),
		"offset":     offset,
	}
	if int64(len(docs)) == pageSize {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			Db:  s.db.Name(),
			C:   collection,
			Off: pagination.NextOffset(offset, int64(len(docs))),
			Ps:  pageSize,
			Fh:  filterHash,
		})
		if err != nil {
			return mcperr.Wrapf(mcperr.CursorBuildFailed, "%v", err), nil
		}
		out["next_cursor"] = token
	}
	return s.jsonResult(out), nil
}

// HandleCountDocuments counts documents matching a filter. An empty filter
// is legal here (counting is read-only) but the match-all warning is
// surfaced so callers notice.
func (s *Service) HandleCountDocuments(ctx context.Context, req mcp.CallToolRequest, in CountDocumentsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	filter, err := validation.ParseFilter(in.Filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.InvalidFilter, "%v", err), nil
	}
	filter = safety.CoerceObjectIDs(filter)

	count, err := s.db.Collection(in.Collection).CountDocuments(ctx, filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "count in %q: %v", in.Collection, err), nil
	}
	out := bson.M{"collection": in.Collection, "count": count}
	if v := safety.ValidateFilter(filter); v.Warning != "" {
		out["note"] = v.Warning
	}
	return s.jsonResult(out), nil
}

// duplicatePipeline builds the aggregation that groups a field's values and
// keeps groups at or above minCount, largest groups first.
func duplicatePipeline(field string, minCount, limit int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{field: bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
			"ids":   bson.M{"$push": "$_id"},
		}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gte": minCount}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: limit}},
	}
}

// HandleFindDuplicates reports values of a field that occur more than once,
// with the owning document ids per group.
func (s *Service) HandleFindDuplicates(ctx context.Context, req mcp.CallToolRequest, in FindDuplicatesInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	minCount := in.MinCount
	if minCount < 2 {
		minCount = 2
	}
	limit := in.Limit
	if limit <= 0 || limit > int64(s.limits.MaxResultDocs) {
		limit = int64(s.limits.MaxResultDocs)
	}

	cur, err := s.db.Collection(in.Collection).Aggregate(ctx, duplicatePipeline(in.Field, minCount, limit))
	if err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "aggregate duplicates in %q: %v", in.Collection, err), nil
	}
	var groups []bson.M
	if err := cur.All(ctx, &groups); err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "decode duplicate groups: %v", err), nil
	}
	return s.jsonResult(bson.M{
		"collection": in.Collection,
		"field":      in.Field,
		"groups":     groups,
		"count":      len(groups),
	}), nil
}
