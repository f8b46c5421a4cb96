package mongodb

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinodismyname/mcpmongo/internal/safety"
	"github.com/vinodismyname/mcpmongo/pkg/mcperr"
	"github.com/vinodismyname/mcpmongo/pkg/validation"
)

// UpdateDocumentsInput defines parameters for a guarded multi-document update.
type UpdateDocumentsInput struct {
	Collection       string `json:"collection" validate:"required,collname" jsonschema_description:"Collection to update"`
	Filter           string `json:"filter,omitempty" validate:"omitempty,extjson" jsonschema_description:"Extended JSON filter selecting the documents to update"`
	Update           string `json:"update" validate:"required,extjson" jsonschema_description:"Extended JSON update document, e.g. {\"$set\": {\"status\": \"archived\"}}"`
	AllowEmptyFilter bool   `json:"allowEmptyFilter,omitempty" jsonschema_description:"Explicitly allow an empty filter that updates every document"`
	DryRun           bool   `json:"dryRun,omitempty" jsonschema_description:"Preview the affected document count without writing"`
	Upsert           bool   `json:"upsert,omitempty" jsonschema_description:"Insert a document when none matches"`
}

// DeleteDocumentsInput defines parameters for a guarded multi-document delete.
type DeleteDocumentsInput struct {
	Collection       string `json:"collection" validate:"required,collname" jsonschema_description:"Collection to delete from"`
	Filter           string `json:"filter,omitempty" validate:"omitempty,extjson" jsonschema_description:"Extended JSON filter selecting the documents to delete"`
	AllowEmptyFilter bool   `json:"allowEmptyFilter,omitempty" jsonschema_description:"Explicitly allow an empty filter that deletes every document"`
	DryRun           bool   `json:"dryRun,omitempty" jsonschema_description:"Preview the affected document count without deleting"`
}

// CloneCollectionInput defines parameters for a server-side collection copy.
type CloneCollectionInput struct {
	Source string `json:"source" validate:"required,collname" jsonschema_description:"Collection to copy"`
	Target string `json:"target" validate:"required,collname" jsonschema_description:"Name for the copy (replaced if it exists)"`
	Filter string `json:"filter,omitempty" validate:"omitempty,extjson" jsonschema_description:"Optional Extended JSON filter to copy a subset"`
}

// HandleUpdateDocuments updates all documents matching a filter. Empty
// filters are blocked unless explicitly allowed, and a dry run reports the
// impact without writing.
func (s *Service) HandleUpdateDocuments(ctx context.Context, req mcp.CallToolRequest, in UpdateDocumentsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	filter, err := validation.ParseFilter(in.Filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.InvalidFilter, "%v", err), nil
	}
	filter = safety.CoerceObjectIDs(filter)

	if res := s.guardWrite(filter, in.AllowEmptyFilter, "update", in.Collection); res != nil {
		return res, nil
	}

	if in.DryRun {
		count, err := s.db.Collection(in.Collection).CountDocuments(ctx, filter)
		if err != nil {
			return mcperr.Wrapf(mcperr.QueryFailed, "count in %q: %v", in.Collection, err), nil
		}
		out := bson.M{"collection": in.Collection, "wouldAffect": count, "dryRun": true}
		if warning := safety.OperationWarning(count, "update"); warning != "" {
			out["warning"] = warning
		}
		return s.jsonResult(out), nil
	}

	var update bson.M
	if err := bson.UnmarshalExtJSON([]byte(in.Update), true, &update); err != nil {
		return mcperr.Wrapf(mcperr.Validation, "update must be an Extended JSON document: %v", err), nil
	}

	res, err := s.db.Collection(in.Collection).UpdateMany(ctx, filter, update, options.Update().SetUpsert(in.Upsert))
	if err != nil {
		return mcperr.Wrapf(mcperr.WriteFailed, "update in %q: %v", in.Collection, err), nil
	}
	s.logger.Info().Str("collection", in.Collection).Int64("matched", res.MatchedCount).Int64("modified", res.ModifiedCount).Msg("documents updated")

	out := bson.M{
		"collection": in.Collection,
		"matched":    res.MatchedCount,
		"modified":   res.ModifiedCount,
		"upsertedId": res.UpsertedID,
	}
	if warning := safety.OperationWarning(res.ModifiedCount, "update"); warning != "" {
		out["warning"] = warning
	}
	return s.jsonResult(out), nil
}

// HandleDeleteDocuments deletes all documents matching a filter, with the
// same guard and dry-run semantics as updates.
func (s *Service) HandleDeleteDocuments(ctx context.Context, req mcp.CallToolRequest, in DeleteDocumentsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	filter, err := validation.ParseFilter(in.Filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.InvalidFilter, "%v", err), nil
	}
	filter = safety.CoerceObjectIDs(filter)

	if res := s.guardWrite(filter, in.AllowEmptyFilter, "delete", in.Collection); res != nil {
		return res, nil
	}

	if in.DryRun {
		count, err := s.db.Collection(in.Collection).CountDocuments(ctx, filter)
		if err != nil {
			return mcperr.Wrapf(mcperr.QueryFailed, "count in %q: %v", in.Collection, err), nil
		}
		out := bson.M{"collection": in.Collection, "wouldAffect": count, "dryRun": true}
		if warning := safety.OperationWarning(count, "delete"); warning != "" {
			out["warning"] = warning
		}
		return s.jsonResult(out), nil
	}

	res, err := s.db.Collection(in.Collection).DeleteMany(ctx, filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.WriteFailed, "delete in %q: %v", in.Collection, err), nil
	}
	s.logger.Info().Str("collection", in.Collection).Int64("deleted", res.DeletedCount).Msg("documents deleted")

	out := bson.M{"collection": in.Collection, "deleted": res.DeletedCount}
	if warning := safety.OperationWarning(res.DeletedCount, "delete"); warning != "" {
		out["warning"] = warning
	}
	return s.jsonResult(out), nil
}

// clonePipeline builds the server-side copy: match (possibly everything),
// then $out into the target collection.
func clonePipeline(filter bson.M, target string) mongo.Pipeline {
	if filter == nil {
		filter = bson.M{}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$out", Value: target}},
	}
}

// HandleCloneCollection copies a collection (or a filtered subset) into a new
// collection without the documents leaving the server.
func (s *Service) HandleCloneCollection(ctx context.Context, req mcp.CallToolRequest, in CloneCollectionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	if s.readOnly {
		return mcperr.Wrapf(mcperr.ReadOnly, "clone_collection is disabled in read-only mode"), nil
	}
	if in.Source == in.Target {
		return mcperr.New(mcperr.Validation, "VALIDATION: target must differ from source"), nil
	}
	filter, err := validation.ParseFilter(in.Filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.InvalidFilter, "%v", err), nil
	}
	filter = safety.CoerceObjectIDs(filter)

	cur, err := s.db.Collection(in.Source).Aggregate(ctx, clonePipeline(filter, in.Target))
	if err != nil {
		return mcperr.Wrapf(mcperr.CloneFailed, "clone %q to %q: %v", in.Source, in.Target, err), nil
	}
	_ = cur.Close(ctx)

	count, err := s.db.Collection(in.Target).EstimatedDocumentCount(ctx)
	if err != nil {
		return mcperr.Wrapf(mcperr.CloneFailed, "verify clone %q: %v", in.Target, err), nil
	}
	s.logger.Info().Str("source", in.Source).Str("target", in.Target).Int64("documents", count).Msg("collection cloned")
	return s.jsonResult(bson.M{"source": in.Source, "target": in.Target, "documents": count}), nil
}
