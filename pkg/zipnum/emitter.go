// Package zipnum slices a sorted CDXJ line set into a ZipNum shared
// index: fixed-size shards gzip-compressed into index.cdx.gz, with one
// IDX line per shard cross-referencing byte offsets.
package zipnum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ShardLimit is the maximum number of CDXJ lines per shard. Windows are
// partitioned as [start, min(start+ShardLimit, len)), so a shard boundary
// never loses a line.
const ShardLimit = 3000

const metaLine = `!meta 0 {"format": "cdxj-gzip-1.0", "filename": "index.cdx.gz"}` + "\n"

// idxRecord is the JSON object half of one IDX line.
type idxRecord struct {
	Offset   int64  `json:"offset"`
	Length   int64  `json:"length"`
	Digest   string `json:"digest"`
	Filename string `json:"filename"`
}

// Result holds the two files this package emits.
type Result struct {
	CDXGz []byte // index.cdx.gz
	IDX   []byte // index.idx
}

// Emit slices sortedLines (already in ascending byte-lex order, each
// already "\n"-terminated) into shards of at most ShardLimit lines,
// gzip-compressing each shard as an independent gzip member appended to
// index.cdx.gz, and emits one cross-referencing IDX line per shard.
// onShard, when non-nil, is called once per emitted shard with its
// gzip-compressed size, letting a caller wire shard counts into metrics.
func Emit(sortedLines []string, onShard func(bytes int)) (Result, error) {
	var cdxGz bytes.Buffer

	var idx strings.Builder

	idx.WriteString(metaLine)

	for start := 0; start < len(sortedLines); start += ShardLimit {
		end := start + ShardLimit
		if end > len(sortedLines) {
			end = len(sortedLines)
		}

		window := sortedLines[start:end]

		shardBytes := []byte(strings.Join(window, ""))

		shardGz, err := gzipMember(shardBytes)
		if err != nil {
			return Result{}, fmt.Errorf("gzip-compressing shard %d..%d: %w", start, end, err)
		}

		offset := int64(cdxGz.Len())

		cdxGz.Write(shardGz)

		sum := sha256.Sum256(shardGz)

		rec := idxRecord{
			Offset:   offset,
			Length:   int64(len(shardGz)),
			Digest:   "sha256:" + hex.EncodeToString(sum[:]),
			Filename: "index.cdx.gz",
		}

		recJSON, err := json.Marshal(rec)
		if err != nil {
			return Result{}, fmt.Errorf("marshaling idx record: %w", err)
		}

		firstToken := firstToken(window[0])

		idx.WriteString(firstToken)
		idx.WriteString(" ")
		idx.Write(recJSON)
		idx.WriteString("\n")

		if onShard != nil {
			onShard(len(shardGz))
		}
	}

	return Result{CDXGz: cdxGz.Bytes(), IDX: []byte(idx.String())}, nil
}

// firstToken returns the text of line up to its first space: the
// searchable_url/SURT component of a CDXJ line.
func firstToken(line string) string {
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		return line[:idx]
	}

	return strings.TrimSuffix(line, "\n")
}

func gzipMember(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
