package mongodb

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleDocs(t *testing.T) []bson.M {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)
	return []bson.M{
		{"_id": oid, "name": "alice", "age": int32(30)},
		{"_id": primitive.NewObjectID(), "name": "bob", "tags": bson.A{"a", "b"}},
	}
}

func TestExportColumns_StableHeader(t *testing.T) {
	cols := exportColumns(sampleDocs(t))
	require.Equal(t, []string{"_id", "age", "name", "tags"}, cols)
}

func TestExportColumns_NoDocs(t *testing.T) {
	require.Empty(t, exportColumns(nil))
}

func TestExportJSON_ValidArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportJSON(&buf, sampleDocs(t)))

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed, 2)
	require.Equal(t, "alice", parsed[0]["name"])
}

func TestExportCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportCSV(&buf, sampleDocs(t)))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"_id", "age", "name", "tags"}, records[0])
	require.Equal(t, "alice", records[1][2])
	// Missing fields render as empty cells.
	require.Equal(t, "", records[2][1])
}

func TestWriteExport_XLSXRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.xlsx")
	require.NoError(t, writeExport(path, sampleDocs(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"_id", "age", "name", "tags"}, rows[0])
	require.Equal(t, "alice", rows[1][2])

	// The rename leaves no temp files behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "users.xlsx", entries[0].Name())
}

func TestWriteExport_JSONAndCSV(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"users.json", "users.csv"} {
		path := filepath.Join(dir, name)
		require.NoError(t, writeExport(path, sampleDocs(t)))
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.NotZero(t, info.Size())
	}
}

func TestWriteExport_UnsupportedExtension(t *testing.T) {
	err := writeExport(filepath.Join(t.TempDir(), "dump.txt"), nil)
	require.Error(t, err)
}

func TestCellValue(t *testing.T) {
	require.Equal(t, "", cellValue(nil))
	require.Equal(t, "alice", cellValue("alice"))
	require.Equal(t, "30", cellValue(int32(30)))
	require.Equal(t, `["a","b"]`, cellValue(bson.A{"a", "b"}))
	require.Equal(t, `{"x":1}`, cellValue(bson.M{"x": int32(1)}))
}
