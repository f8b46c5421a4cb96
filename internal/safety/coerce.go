// Package safety implements the query safety and projection layer applied
// around every tool call: ObjectID coercion on inbound filters, response
// redaction and verbosity filtering on outbound payloads, destructive
// operation guards, and admin rate limiting.
package safety

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsIDField reports whether a field name semantically holds an ObjectID
// reference. The heuristic is intentionally narrow: exact "_id", suffix "Id",
// the whole name "id" (case-insensitive), suffix "_id", or prefix "ref"
// (case-insensitive). Names that merely contain "id" (e.g. "identity") do
// not match.
func IsIDField(name string) bool {
	if name == "_id" {
		return true
	}
	if strings.HasSuffix(name, "Id") {
		return true
	}
	if strings.EqualFold(name, "id") {
		return true
	}
	if strings.HasSuffix(name, "_id") {
		return true
	}
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "ref")
}

// CoerceObjectIDs returns a copy of filter with string values in
// identifier-like fields replaced by primitive.ObjectID values when they are
// valid 24-hex encodings. Invalid strings and non-identifier fields pass
// through unchanged; the input is never mutated. Operator sub-documents
// ($-prefixed keys) inherit the enclosing field name; plain nested documents
// are traversed with their own keys.
func CoerceObjectIDs(filter bson.M) bson.M {
	if filter == nil {
		return nil
	}
	out := make(bson.M, len(filter))
	for k, v := range filter {
		out[k] = coerceValue(k, v)
	}
	return out
}

func coerceValue(field string, v any) any {
	switch val := v.(type) {
	case string:
		if IsIDField(field) && primitive.IsValidObjectID(val) {
			if oid, err := primitive.ObjectIDFromHex(val); err == nil {
				return oid
			}
		}
		return val
	case bson.M:
		return coerceDocument(field, val)
	case map[string]any:
		return coerceDocument(field, val)
	case bson.A:
		return coerceArray(field, val)
	case []any:
		return coerceArray(field, val)
	default:
		return v
	}
}

// coerceDocument handles a sub-document under field. Operator keys ($eq, $in,
// $or, ...) keep the outer field name: scalar operands coerce when the outer
// field is identifier-like, and sequence operands coerce element-wise. Plain
// keys start a fresh field context.
func coerceDocument(field string, doc map[string]any) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if strings.HasPrefix(k, "$") {
			out[k] = coerceOperand(field, v)
			continue
		}
		out[k] = coerceValue(k, v)
	}
	return out
}

func coerceOperand(field string, v any) any {
	switch val := v.(type) {
	case bson.A:
		return coerceArray(field, val)
	case []any:
		return coerceArray(field, val)
	default:
		return coerceValue(field, v)
	}
}

// coerceArray coerces string elements when the outer field is identifier-like
// (e.g. {_id: {$in: [...]}}) and recurses structurally into document elements
// (e.g. the branches of $or).
func coerceArray(field string, arr []any) []any {
	out := make([]any, len(arr))
	for i, el := range arr {
		out[i] = coerceValue(field, el)
	}
	return out
}
