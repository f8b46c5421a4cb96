package safety

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Redacted is the marker substituted for sensitive field values.
const Redacted = "[REDACTED]"

// sensitiveTerms are matched as substrings of lowercased key names. "key" is
// deliberately broad: it catches apiKey, keyFile, and encryption key fields.
var sensitiveTerms = []string{"connectionstring", "password", "key", "secret", "token"}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// RedactSensitive returns a deep copy of doc with the value of every
// sensitive-named key replaced by the Redacted marker. The caller's document
// is never mutated. Traversal descends into nested documents and into
// documents held inside arrays; siblings of a redacted key are still visited.
func RedactSensitive(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if isSensitiveKey(k) {
			out[k] = Redacted
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		return RedactSensitive(val)
	case map[string]any:
		return RedactSensitive(bson.M(val))
	case bson.A:
		return redactArray(val)
	case []any:
		return redactArray(val)
	default:
		return v
	}
}

func redactArray(arr []any) []any {
	out := make([]any, len(arr))
	for i, el := range arr {
		out[i] = redactValue(el)
	}
	return out
}
