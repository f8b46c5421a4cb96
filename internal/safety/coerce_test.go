package safety

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const validHex = "507f1f77bcf86cd799439011"

func TestIsIDField(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"_id", true},
		{"userId", true},
		{"id", true},
		{"ID", true},
		{"Id", true},
		{"owner_id", true},
		{"refOrder", true},
		{"Reference", true},
		{"identity", false},
		{"valid", false},
		{"grid", false},
		{"idempotencyToken", false},
		{"status", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsIDField(tc.name), "field %q", tc.name)
	}
}

func TestCoerceObjectIDs_TopLevelID(t *testing.T) {
	out := CoerceObjectIDs(bson.M{"_id": validHex})

	oid, err := primitive.ObjectIDFromHex(validHex)
	require.NoError(t, err)
	require.Equal(t, oid, out["_id"])
}

func TestCoerceObjectIDs_NonIDFieldUntouched(t *testing.T) {
	out := CoerceObjectIDs(bson.M{"identity": validHex})
	require.Equal(t, validHex, out["identity"])
}

func TestCoerceObjectIDs_InvalidHexPassesThrough(t *testing.T) {
	out := CoerceObjectIDs(bson.M{"_id": "not-a-hex-string"})
	require.Equal(t, "not-a-hex-string", out["_id"])
}

func TestCoerceObjectIDs_OperatorScalar(t *testing.T) {
	out := CoerceObjectIDs(bson.M{"userId": bson.M{"$ne": validHex}})

	oid, _ := primitive.ObjectIDFromHex(validHex)
	require.Equal(t, bson.M{"$ne": oid}, out["userId"])
}

func TestCoerceObjectIDs_OperatorSequence(t *testing.T) {
	other := "662f1f77bcf86cd799439099"
	out := CoerceObjectIDs(bson.M{"_id": bson.M{"$in": []any{validHex, other, "bogus"}}})

	oid1, _ := primitive.ObjectIDFromHex(validHex)
	oid2, _ := primitive.ObjectIDFromHex(other)
	require.Equal(t, bson.M{"$in": []any{oid1, oid2, "bogus"}}, out["_id"])
}

func TestCoerceObjectIDs_OperatorScalarNonIDField(t *testing.T) {
	// Operator inherits the enclosing field name; "status" is not ID-like.
	out := CoerceObjectIDs(bson.M{"status": bson.M{"$eq": validHex}})
	require.Equal(t, bson.M{"$eq": validHex}, out["status"])
}

func TestCoerceObjectIDs_NestedDocumentOwnContext(t *testing.T) {
	// The nested document's own keys decide coercion, not the parent key.
	out := CoerceObjectIDs(bson.M{
		"metadata": bson.M{
			"ownerId": validHex,
			"label":   validHex,
		},
	})

	oid, _ := primitive.ObjectIDFromHex(validHex)
	nested, ok := out["metadata"].(bson.M)
	require.True(t, ok)
	require.Equal(t, oid, nested["ownerId"])
	require.Equal(t, validHex, nested["label"])
}

func TestCoerceObjectIDs_OrBranches(t *testing.T) {
	out := CoerceObjectIDs(bson.M{
		"$or": []any{
			bson.M{"_id": validHex},
			bson.M{"name": "alice"},
		},
	})

	oid, _ := primitive.ObjectIDFromHex(validHex)
	branches, ok := out["$or"].([]any)
	require.True(t, ok)
	require.Equal(t, bson.M{"_id": oid}, branches[0])
	require.Equal(t, bson.M{"name": "alice"}, branches[1])
}

func TestCoerceObjectIDs_PlainSequenceUnderIDField(t *testing.T) {
	out := CoerceObjectIDs(bson.M{"refIds": []any{validHex, 42}})

	oid, _ := primitive.ObjectIDFromHex(validHex)
	require.Equal(t, []any{oid, 42}, out["refIds"])
}

func TestCoerceObjectIDs_DoesNotMutateInput(t *testing.T) {
	in := bson.M{"_id": validHex, "nested": bson.M{"refId": validHex}}
	_ = CoerceObjectIDs(in)

	require.Equal(t, validHex, in["_id"])
	require.Equal(t, validHex, in["nested"].(bson.M)["refId"])
}

func TestCoerceObjectIDs_Idempotent(t *testing.T) {
	in := bson.M{
		"_id":    validHex,
		"userId": bson.M{"$in": []any{validHex}},
		"status": "active",
	}
	once := CoerceObjectIDs(in)
	twice := CoerceObjectIDs(once)
	require.Equal(t, once, twice)
}

func TestCoerceObjectIDs_NilFilter(t *testing.T) {
	require.Nil(t, CoerceObjectIDs(nil))
}
