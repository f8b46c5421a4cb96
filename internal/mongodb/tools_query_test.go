package mongodb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vinodismyname/mcpmongo/config"
	"github.com/vinodismyname/mcpmongo/pkg/pagination"
)

func TestDuplicatePipeline_Shape(t *testing.T) {
	p := duplicatePipeline("email", 2, 50)
	require.Len(t, p, 5)

	match := p[0][0]
	require.Equal(t, "$match", match.Key)
	require.Equal(t, bson.M{"email": bson.M{"$ne": nil}}, match.Value)

	group := p[1][0]
	require.Equal(t, "$group", group.Key)
	spec := group.Value.(bson.M)
	require.Equal(t, "$email", spec["_id"])

	threshold := p[2][0]
	require.Equal(t, "$match", threshold.Key)
	require.Equal(t, bson.M{"count": bson.M{"$gte": int64(2)}}, threshold.Value)

	require.Equal(t, "$sort", p[3][0].Key)
	require.Equal(t, "$limit", p[4][0].Key)
	require.Equal(t, int64(50), p[4][0].Value)
}

func TestClampPageSize(t *testing.T) {
	require.Equal(t, int64(config.DefaultFindPageSize), clampPageSize(0, 100))
	require.Equal(t, int64(config.DefaultFindPageSize), clampPageSize(-5, 100))
	require.Equal(t, int64(40), clampPageSize(40, 100))
	require.Equal(t, int64(100), clampPageSize(101, 100))
}

func TestClampPageSize_ForgedCursor(t *testing.T) {
	// A cursor is plain base64 JSON, so ps is client-controlled; a tampered
	// token must not turn into an unbounded find limit.
	token, err := pagination.EncodeCursor(pagination.Cursor{
		Db:  "app",
		C:   "users",
		Off: 0,
		Ps:  5_000_000,
	})
	require.NoError(t, err)

	cur, err := pagination.DecodeCursor(token)
	require.NoError(t, err)
	require.Equal(t, int64(5_000_000), cur.Ps)
	require.Equal(t, int64(config.DefaultMaxResultDocs), clampPageSize(cur.Ps, config.DefaultMaxResultDocs))
}

func TestClonePipeline_Shape(t *testing.T) {
	p := clonePipeline(bson.M{"status": "active"}, "users_copy")
	require.Len(t, p, 2)
	require.Equal(t, "$match", p[0][0].Key)
	require.Equal(t, bson.M{"status": "active"}, p[0][0].Value)
	require.Equal(t, "$out", p[1][0].Key)
	require.Equal(t, "users_copy", p[1][0].Value)

	// A nil filter clones everything.
	p = clonePipeline(nil, "users_copy")
	require.Equal(t, bson.M{}, p[0][0].Value)
}
