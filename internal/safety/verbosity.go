package safety

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Verbosity selects how much of a diagnostic payload is returned to the
// caller. Tiers are cumulative: standard keeps a superset of minimal, and
// full keeps everything.
type Verbosity string

const (
	VerbosityMinimal  Verbosity = "minimal"
	VerbosityStandard Verbosity = "standard"
	VerbosityFull     Verbosity = "full"
)

// ParseVerbosity maps a caller-supplied string to a Verbosity tier. Unknown
// or empty values fall back to minimal so responses stay small by default.
func ParseVerbosity(s string) Verbosity {
	switch Verbosity(strings.ToLower(strings.TrimSpace(s))) {
	case VerbosityStandard:
		return VerbosityStandard
	case VerbosityFull:
		return VerbosityFull
	default:
		return VerbosityMinimal
	}
}

// Whitelists per payload kind. The standard tier always extends minimal, so
// retained key sets are monotonic across tiers.
var (
	collStatsMinimal  = []string{"ns", "count", "size", "avgObjSize", "storageSize", "nindexes", "totalIndexSize", "indexSizes"}
	collStatsStandard = []string{"capped", "max", "maxSize", "freeStorageSize"}

	dbStatsMinimal  = []string{"db", "collections", "objects", "dataSize", "storageSize", "indexes", "indexSize"}
	dbStatsStandard = []string{"avgObjSize", "views", "totalSize", "fsUsedSize", "fsTotalSize", "scaleFactor"}

	profilerMinimal  = []string{"op", "ns", "ts", "millis"}
	profilerStandard = []string{"keysExamined", "docsExamined", "nreturned", "planSummary", "client", "appName"}

	slowOpMinimal  = []string{"opid", "op", "ns", "secs_running", "desc"}
	slowOpStandard = []string{"microsecs_running", "planSummary", "client", "appName", "waitingForLock", "numYields"}
)

func filterByTier(doc bson.M, v Verbosity, minimal, standard []string) bson.M {
	if doc == nil {
		return nil
	}
	if v == VerbosityFull {
		return doc
	}
	keep := minimal
	if v == VerbosityStandard {
		keep = append(append([]string{}, minimal...), standard...)
	}
	out := make(bson.M, len(keep))
	for _, k := range keep {
		if val, ok := doc[k]; ok {
			out[k] = val
		}
	}
	return out
}

// FilterCollectionStats trims a collStats payload to the selected tier.
// Fields outside the active whitelist are omitted, never set to null.
func FilterCollectionStats(stats bson.M, v Verbosity) bson.M {
	return filterByTier(stats, v, collStatsMinimal, collStatsStandard)
}

// FilterDatabaseStats trims a dbStats payload to the selected tier.
func FilterDatabaseStats(stats bson.M, v Verbosity) bson.M {
	return filterByTier(stats, v, dbStatsMinimal, dbStatsStandard)
}

// FilterProfilerEntry trims a system.profile document to the selected tier.
func FilterProfilerEntry(entry bson.M, v Verbosity) bson.M {
	return filterByTier(entry, v, profilerMinimal, profilerStandard)
}

// FilterSlowOperation trims a currentOp in-progress record to the selected tier.
func FilterSlowOperation(op bson.M, v Verbosity) bson.M {
	return filterByTier(op, v, slowOpMinimal, slowOpStandard)
}

// ExcludeZeroMetrics drops keys from a flat stats document whose value is a
// numeric zero, nil, BSON null/undefined, an empty array, or an empty
// document, compacting the payload before display.
func ExcludeZeroMetrics(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if isZeroMetric(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isZeroMetric(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case primitive.Null, primitive.Undefined:
		return true
	case int:
		return val == 0
	case int32:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	case bson.A:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case bson.M:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// ServerStatusOptions selects which optional serverStatus sub-documents are
// retained. All default to false: the full sections are large and rarely
// needed by callers.
type ServerStatusOptions struct {
	IncludeWiredTiger    bool
	IncludeRepl          bool
	IncludeStorageEngine bool
}

// FilterServerStatus removes the wiredTiger, repl, and storageEngine
// sub-documents from a serverStatus payload unless the matching option is
// set. The input is not mutated.
func FilterServerStatus(status bson.M, opts ServerStatusOptions) bson.M {
	if status == nil {
		return nil
	}
	out := make(bson.M, len(status))
	for k, v := range status {
		switch k {
		case "wiredTiger":
			if !opts.IncludeWiredTiger {
				continue
			}
		case "repl":
			if !opts.IncludeRepl {
				continue
			}
		case "storageEngine":
			if !opts.IncludeStorageEngine {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// FilterSlowOpDetails removes the query and lockStats fields from a slow
// operation record unless the caller explicitly requested query detail.
func FilterSlowOpDetails(op bson.M, includeQueryDetails bool) bson.M {
	if op == nil {
		return nil
	}
	out := make(bson.M, len(op))
	for k, v := range op {
		if !includeQueryDetails && (k == "query" || k == "lockStats") {
			continue
		}
		out[k] = v
	}
	return out
}
