package mongodb

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vinodismyname/mcpmongo/internal/runtime"
	"github.com/vinodismyname/mcpmongo/internal/safety"
)

// newTestService builds a Service with no live database; only the pure
// helpers are exercised here.
func newTestService(readOnly bool) *Service {
	limits := runtime.NewLimits(2, 1)
	ctrl := runtime.NewController(limits)
	return NewService(nil, limits, ctrl, nil, zerolog.Nop(), ServiceOptions{ReadOnly: readOnly})
}

func TestJSONResult_SerializesPayload(t *testing.T) {
	s := newTestService(false)
	res := s.jsonResult(bson.M{"count": int32(3)})
	require.False(t, res.IsError)
}

func TestJSONResult_EnforcesPayloadCap(t *testing.T) {
	s := newTestService(false)
	s.limits.MaxPayloadBytes = 64

	res := s.jsonResult(bson.M{"blob": strings.Repeat("x", 200)})
	require.True(t, res.IsError)
}

func TestGuardWrite_ReadOnly(t *testing.T) {
	s := newTestService(true)
	res := s.guardWrite(bson.M{"status": "active"}, false, "delete", "users")
	require.NotNil(t, res)
	require.True(t, res.IsError)
}

func TestGuardWrite_EmptyFilterBlocked(t *testing.T) {
	s := newTestService(false)

	res := s.guardWrite(bson.M{}, false, "delete", "users")
	require.NotNil(t, res)
	require.True(t, res.IsError)

	require.Nil(t, s.guardWrite(bson.M{}, true, "delete", "users"))
	require.Nil(t, s.guardWrite(bson.M{"status": "active"}, false, "delete", "users"))
}

func TestVerbosityFor_FallsBackToDefault(t *testing.T) {
	s := newTestService(false)
	require.Equal(t, safety.VerbosityMinimal, s.verbosityFor(""))
	require.Equal(t, safety.VerbosityFull, s.verbosityFor("full"))
	require.Equal(t, safety.VerbosityMinimal, s.verbosityFor("nonsense"))
}
