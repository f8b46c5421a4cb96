package safety

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// EmptyFilterWarning is attached to validations of filters that match every
// document in a collection.
const EmptyFilterWarning = "Empty filter matches ALL documents in the collection"

// FilterValidation classifies a filter's shape. The guard is advisory: it
// never rejects a filter, so IsValid is always true.
type FilterValidation struct {
	IsValid    bool
	IsEmpty    bool
	IsMatchAll bool
	Warning    string
}

// ValidateFilter classifies filter as empty/match-all. IsMatchAll currently
// mirrors IsEmpty: nested always-true shapes such as {$or: [{}]} are not
// detected.
func ValidateFilter(filter bson.M) FilterValidation {
	v := FilterValidation{IsValid: true}
	if len(filter) == 0 {
		v.IsEmpty = true
		v.IsMatchAll = true
		v.Warning = EmptyFilterWarning
	}
	return v
}

// BlockDecision is the advisory outcome of ShouldBlockFilter. The caller
// decides whether to honor it.
type BlockDecision struct {
	Blocked bool
	Reason  string
}

// ShouldBlockFilter blocks operation iff the filter is empty and the caller
// has not explicitly allowed empty filters. The reason names the operation
// and suggests a dry run or allowEmptyFilter as the way forward.
func ShouldBlockFilter(filter bson.M, allowEmptyFilter bool, operation string) BlockDecision {
	if len(filter) != 0 || allowEmptyFilter {
		return BlockDecision{}
	}
	reason := strings.Join([]string{
		fmt.Sprintf("Blocked %s with empty filter: {}", operation),
		"An empty filter applies the operation to EVERY document in the collection.",
		fmt.Sprintf("Run the %s with dryRun: true first to preview the impact,", operation),
		"or set allowEmptyFilter: true to apply it to all documents.",
	}, "\n")
	return BlockDecision{Blocked: true, Reason: reason}
}

// Warning tiers for OperationWarning, by affected document count.
const (
	warnPlainThreshold  = 11
	warnSingleThreshold = 100
	warnDoubleThreshold = 1000
)

// OperationWarning returns a severity-tiered impact message for a mutating
// operation that would affect count documents. Counts of 10 or fewer produce
// no warning.
func OperationWarning(count int64, operation string) string {
	switch {
	case count < warnPlainThreshold:
		return ""
	case count < warnSingleThreshold:
		return fmt.Sprintf("This %s will affect %s documents.", operation, groupThousands(count))
	case count < warnDoubleThreshold:
		return fmt.Sprintf("⚠️ This %s will affect %s documents.", operation, groupThousands(count))
	default:
		return fmt.Sprintf("⚠️⚠️ WARNING: this %s will affect %s documents!", operation, groupThousands(count))
	}
}

// groupThousands formats n with comma separators ("5000" -> "5,000").
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
