package safety

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestValidateFilter(t *testing.T) {
	empty := ValidateFilter(bson.M{})
	require.True(t, empty.IsValid)
	require.True(t, empty.IsEmpty)
	require.True(t, empty.IsMatchAll)
	require.Equal(t, EmptyFilterWarning, empty.Warning)

	nilCase := ValidateFilter(nil)
	require.True(t, nilCase.IsEmpty)
	require.True(t, nilCase.IsMatchAll)

	nonEmpty := ValidateFilter(bson.M{"status": "active"})
	require.True(t, nonEmpty.IsValid)
	require.False(t, nonEmpty.IsEmpty)
	require.False(t, nonEmpty.IsMatchAll)
	require.Empty(t, nonEmpty.Warning)

	// Nested match-all shapes are deliberately not detected.
	nested := ValidateFilter(bson.M{"$or": []any{bson.M{}}})
	require.False(t, nested.IsMatchAll)
}

func TestShouldBlockFilter(t *testing.T) {
	blocked := ShouldBlockFilter(bson.M{}, false, "delete")
	require.True(t, blocked.Blocked)
	require.Contains(t, blocked.Reason, "delete")
	require.Contains(t, blocked.Reason, "{}")
	require.Contains(t, blocked.Reason, "allowEmptyFilter")
	require.Contains(t, blocked.Reason, "dryRun")

	allowed := ShouldBlockFilter(bson.M{}, true, "delete")
	require.False(t, allowed.Blocked)
	require.Empty(t, allowed.Reason)

	scoped := ShouldBlockFilter(bson.M{"status": "active"}, false, "delete")
	require.False(t, scoped.Blocked)
}

func TestOperationWarning_Tiers(t *testing.T) {
	require.Empty(t, OperationWarning(0, "delete"))
	require.Empty(t, OperationWarning(1, "delete"))
	require.Empty(t, OperationWarning(5, "delete"))
	require.Empty(t, OperationWarning(10, "update"))

	plain := OperationWarning(50, "update")
	require.Contains(t, plain, "50")
	require.Contains(t, plain, "update")
	require.NotContains(t, plain, "⚠️")

	single := OperationWarning(150, "delete")
	require.Contains(t, single, "⚠️")
	require.NotContains(t, single, "⚠️⚠️")

	double := OperationWarning(5000, "delete")
	require.Contains(t, double, "⚠️⚠️")
	require.Contains(t, double, "5,000")
}

func TestOperationWarning_Boundaries(t *testing.T) {
	require.Empty(t, OperationWarning(10, "delete"))
	require.NotEmpty(t, OperationWarning(11, "delete"))
	require.NotContains(t, OperationWarning(99, "delete"), "⚠️")
	require.Contains(t, OperationWarning(100, "delete"), "⚠️")
	require.NotContains(t, OperationWarning(999, "delete"), "⚠️⚠️")
	require.Contains(t, OperationWarning(1000, "delete"), "⚠️⚠️")
	require.Contains(t, OperationWarning(1000, "delete"), "1,000")
}

func TestGroupThousands(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		5000:       "5,000",
		123456789:  "123,456,789",
		-12345:     "-12,345",
		1234567890: "1,234,567,890",
	}
	for n, want := range cases {
		require.Equal(t, want, groupThousands(n), "n=%d", n)
	}
}
