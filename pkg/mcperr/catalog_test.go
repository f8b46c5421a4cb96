package mcperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNormalize_KnownCode(t *testing.T) {
	msg := normalize(ReadOnly, "")
	require.Contains(t, msg, "READ_ONLY:")
	require.Contains(t, msg, "nextSteps:")

	msg = normalize(QueryFailed, "find in \"users\" failed")
	require.Contains(t, msg, "QUERY_FAILED: find in \"users\" failed")
}

func TestNormalize_UnknownCode(t *testing.T) {
	msg := normalize(Code("SOMETHING_ELSE"), "details")
	require.Equal(t, "SOMETHING_ELSE: details", msg)
	require.Equal(t, "SOMETHING_ELSE", normalize(Code("SOMETHING_ELSE"), ""))
}

func TestWrapf_ProducesToolError(t *testing.T) {
	res := Wrapf(InvalidFilter, "parse: %v", errors.New("bad token"))
	require.True(t, res.IsError)
}

func TestIsNamespaceNotFound(t *testing.T) {
	byCode := mongo.CommandError{Code: 26, Message: "ns not found"}
	require.True(t, IsNamespaceNotFound(byCode))

	byName := mongo.CommandError{Code: 0, Name: "NamespaceNotFound"}
	require.True(t, IsNamespaceNotFound(byName))

	// Wrapped command errors still match.
	require.True(t, IsNamespaceNotFound(fmt.Errorf("collStats: %w", byCode)))

	require.False(t, IsNamespaceNotFound(nil))
	require.False(t, IsNamespaceNotFound(errors.New("ns not found")))
	require.False(t, IsNamespaceNotFound(mongo.CommandError{Code: 11000, Name: "DuplicateKey"}))
}
