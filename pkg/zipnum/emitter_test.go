package zipnum_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/zipnum"
)

func TestEmit_Empty(t *testing.T) {
	t.Parallel()

	result, err := zipnum.Emit(nil, nil)
	require.NoError(t, err)

	assert.Empty(t, result.CDXGz)
	assert.Equal(t, `!meta 0 {"format": "cdxj-gzip-1.0", "filename": "index.cdx.gz"}`+"\n", string(result.IDX))
}

func TestEmit_SingleShard(t *testing.T) {
	t.Parallel()

	lines := []string{"com,example)/ 20230101000000 {}\n", "org,example)/ 20230101000000 {}\n"}

	var shardCalls []int

	result, err := zipnum.Emit(lines, func(n int) { shardCalls = append(shardCalls, n) })
	require.NoError(t, err)

	assert.Len(t, shardCalls, 1)
	assert.NotEmpty(t, result.CDXGz)

	idxLines := strings.Split(strings.TrimRight(string(result.IDX), "\n"), "\n")
	require.Len(t, idxLines, 2)
	assert.True(t, strings.HasPrefix(idxLines[0], "!meta 0"))
	assert.True(t, strings.HasPrefix(idxLines[1], "com,example)/ "))
}

func TestEmit_ShardBoundary(t *testing.T) {
	t.Parallel()

	total := zipnum.ShardLimit + 1

	lines := make([]string, total)
	for i := range lines {
		lines[i] = fmt.Sprintf("com,example)/%05d 20230101000000 {}\n", i)
	}

	var shardCalls []int

	result, err := zipnum.Emit(lines, func(n int) { shardCalls = append(shardCalls, n) })
	require.NoError(t, err)

	assert.Len(t, shardCalls, 2, "one shard of ShardLimit lines plus one partial shard of the remainder")

	idxLines := strings.Split(strings.TrimRight(string(result.IDX), "\n"), "\n")
	// !meta header + 2 shard lines.
	require.Len(t, idxLines, 3)
	assert.True(t, strings.HasPrefix(idxLines[0], "!meta 0"))

	first := decodeIdxRecord(t, idxLines[1])
	second := decodeIdxRecord(t, idxLines[2])

	assert.Equal(t, int64(0), first.Offset)
	assert.Equal(t, first.Length, second.Offset, "second shard must start where the first ends")
	assert.Equal(t, first.Length+second.Length, int64(len(result.CDXGz)))
}

type idxRecord struct {
	Offset   int64  `json:"offset"`
	Length   int64  `json:"length"`
	Digest   string `json:"digest"`
	Filename string `json:"filename"`
}

func decodeIdxRecord(t *testing.T, line string) idxRecord {
	t.Helper()

	parts := strings.SplitN(line, " ", 2)
	require.Len(t, parts, 2)

	var rec idxRecord

	require.NoError(t, json.Unmarshal([]byte(parts[1]), &rec))

	return rec
}
