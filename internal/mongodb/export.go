package mongodb

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinodismyname/mcpmongo/internal/safety"
	"github.com/vinodismyname/mcpmongo/pkg/mcperr"
	"github.com/vinodismyname/mcpmongo/pkg/validation"
)

// ExportCollectionInput defines parameters for exporting documents to a file.
type ExportCollectionInput struct {
	Collection string `json:"collection" validate:"required,collname" jsonschema_description:"Collection to export"`
	Path       string `json:"path" validate:"required" jsonschema_description:"Output file inside an allowed export directory (.json, .csv, or .xlsx)"`
	Filter     string `json:"filter,omitempty" validate:"omitempty,extjson" jsonschema_description:"Optional Extended JSON filter to export a subset"`
	Limit      int64  `json:"limit,omitempty" validate:"omitempty,min=1" jsonschema_description:"Maximum documents to export (bounded by server limits)"`
}

// HandleExportCollection streams a collection (or filtered subset) to a
// json/csv/xlsx file inside the export allow-list. Export jobs are bounded
// by a dedicated semaphore so they cannot starve ordinary requests.
func (s *Service) HandleExportCollection(ctx context.Context, req mcp.CallToolRequest, in ExportCollectionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.New(mcperr.Validation, msg), nil
	}
	if s.sec == nil || !s.sec.ExportsEnabled() {
		return mcperr.Wrapf(mcperr.PermissionDenied, "exports are disabled; set MCPMONGO_EXPORT_DIRS"), nil
	}
	target, err := s.sec.ValidateExportPath(in.Path)
	if err != nil {
		return mcperr.Wrapf(mcperr.PermissionDenied, "export path rejected: %v", err), nil
	}

	if err := s.ctrl.AcquireExport(ctx); err != nil {
		return mcperr.Wrapf(mcperr.BusyResource, "export capacity exhausted: %v", err), nil
	}
	defer s.ctrl.ReleaseExport()

	filter, err := validation.ParseFilter(in.Filter)
	if err != nil {
		return mcperr.Wrapf(mcperr.InvalidFilter, "%v", err), nil
	}
	filter = safety.CoerceObjectIDs(filter)

	limit := in.Limit
	if limit <= 0 || limit > int64(s.limits.MaxExportDocs) {
		limit = int64(s.limits.MaxExportDocs)
	}

	cur, err := s.db.Collection(in.Collection).Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "find in %q: %v", in.Collection, err), nil
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return mcperr.Wrapf(mcperr.QueryFailed, "decode documents: %v", err), nil
	}

	if err := writeExport(target, docs); err != nil {
		return mcperr.Wrapf(mcperr.ExportFailed, "%v", err), nil
	}
	s.logger.Info().Str("collection", in.Collection).Str("path", target).Int("documents", len(docs)).Msg("collection exported")
	return s.jsonResult(bson.M{
		"collection": in.Collection,
		"path":       target,
		"documents":  len(docs),
		"truncated":  int64(len(docs)) == limit,
	}), nil
}

// writeExport dispatches on the (already validated) file extension. Output
// goes to a temp file in the same directory and is renamed into place, so a
// failed export never leaves a partial file at the target path.
func writeExport(path string, docs []bson.M) error {
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = writeFileWith(tmp, func(w io.Writer) error { return exportJSON(w, docs) })
	case ".csv":
		err = writeFileWith(tmp, func(w io.Writer) error { return exportCSV(w, docs) })
	case ".xlsx":
		err = writeFileWith(tmp, func(w io.Writer) error { return exportXLSX(w, docs) })
	default:
		return fmt.Errorf("export: unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("export: finalize %q: %w", path, err)
	}
	return nil
}

func writeFileWith(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// exportJSON writes documents as a relaxed Extended JSON array, one document
// per line for diff-friendly output.
func exportJSON(w io.Writer, docs []bson.M) error {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}
	for i, doc := range docs {
		b, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return fmt.Errorf("export: marshal document %d: %w", i, err)
		}
		if i > 0 {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return err
			}
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n]\n")
	return err
}

// exportColumns computes a stable header: the sorted union of top-level keys,
// with _id first when present.
func exportColumns(docs []bson.M) []string {
	seen := map[string]struct{}{}
	for _, doc := range docs {
		for k := range doc {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	hasID := false
	for k := range seen {
		if k == "_id" {
			hasID = true
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	if hasID {
		cols = append([]string{"_id"}, cols...)
	}
	return cols
}

// cellValue renders a document field for tabular output. Nested values fall
// back to their Extended JSON rendering.
func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bson.M, bson.A, map[string]any, []any:
		b, err := bson.MarshalExtJSON(bson.M{"v": val}, false, false)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		s := string(b)
		// Unwrap the {"v": ...} envelope used to serialize bare arrays.
		return strings.TrimSuffix(strings.TrimPrefix(s, `{"v":`), "}")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func exportCSV(w io.Writer, docs []bson.M) error {
	cols := exportColumns(docs)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}
	row := make([]string, len(cols))
	for _, doc := range docs {
		for i, c := range cols {
			row[i] = cellValue(doc[c])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// exportXLSX streams the workbook to w rather than saving by path, so the
// atomic temp-file rename in writeExport works regardless of the temp name.
func exportXLSX(w io.Writer, docs []bson.M) error {
	cols := exportColumns(docs)
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: write xlsx header: %w", err)
	}
	for r, doc := range docs {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = cellValue(doc[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("export: xlsx cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: write xlsx row %d: %w", r, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}
