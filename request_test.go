package asyncfs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpKindTable(t *testing.T) {
	t.Parallel()
	ops := AllOps()
	require.Len(t, ops, 25)

	seen := map[string]bool{}
	for _, k := range ops {
		assert.True(t, k.Valid(), k.String())
		assert.NotEqual(t, "unknown", k.String())
		assert.False(t, seen[k.String()], "duplicate name %s", k)
		seen[k.String()] = true
	}
	assert.False(t, OpUnknown.Valid())
	assert.False(t, OpKind(99).Valid())
	assert.Equal(t, "unknown", OpKind(99).String())
	assert.Equal(t, ShapeNone, OpKind(99).Shape())
}

func TestOpKindShapes(t *testing.T) {
	t.Parallel()
	want := map[PayloadShape][]OpKind{
		ShapeInt:     {OpOpen, OpWrite, OpSendfile},
		ShapeStat:    {OpStat, OpLstat, OpFstat},
		ShapeString:  {OpReadlink},
		ShapeBytes:   {OpRead},
		ShapeDirents: {OpScandir},
	}
	special := map[OpKind]bool{}
	for shape, kinds := range want {
		for _, k := range kinds {
			assert.Equal(t, shape, k.Shape(), k.String())
			special[k] = true
		}
	}
	for _, k := range AllOps() {
		if !special[k] {
			assert.Equal(t, ShapeNone, k.Shape(), k.String())
		}
	}
}

func TestOpKindPathBased(t *testing.T) {
	t.Parallel()
	for _, k := range []OpKind{OpOpen, OpUnlink, OpMkdir, OpRmdir, OpScandir, OpStat, OpLstat, OpRename, OpChmod, OpChown, OpUtime, OpLink, OpSymlink, OpReadlink} {
		assert.True(t, k.PathBased(), k.String())
	}
	for _, k := range []OpKind{OpClose, OpRead, OpWrite, OpFstat, OpFsync, OpFdatasync, OpFtruncate, OpSendfile, OpFchmod, OpFchown, OpFutime} {
		assert.False(t, k.PathBased(), k.String())
	}
}

func TestOutcomeArgc(t *testing.T) {
	t.Parallel()
	tests := []struct {
		out  *Outcome
		argc int
		vals []any
	}{
		{nil, 0, nil},
		{&Outcome{Kind: OpClose}, 0, nil},
		{&Outcome{Kind: OpOpen, N: 7}, 1, []any{int64(7)}},
		{&Outcome{Kind: OpRead, N: 2, Data: []byte("hi")}, 2, []any{[]byte("hi"), int64(2)}},
		{&Outcome{Kind: OpReadlink, Target: "/t"}, 1, []any{"/t"}},
		{&Outcome{Kind: OpScandir, Entries: []DirEntry{{Name: "a"}}}, 1, []any{[]DirEntry{{Name: "a"}}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.argc, tt.out.Argc())
		assert.Equal(t, tt.vals, tt.out.Values())
	}
}

func TestDirEntryJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(DirEntry{Name: "x", Type: DirentDir})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","type":"DIR"}`, string(data))
	assert.Equal(t, "UNKNOWN", DirentType(42).String())
}
