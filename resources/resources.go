// Package resources resolves and reads plain-text shard files, either from
// the local filesystem or from S3.
package resources

import (
	"bytes"
	"strings"
)

// Shard is the content of one shard file, one entry per line.
type Shard struct {
	Name  string
	Size  uint64
	Lines []string
}

// ShardSource lists shards matching a pattern and reads them whole.
type ShardSource interface {
	Glob(pattern string) ([]string, error)
	ReadShard(name string) (*Shard, error)
}

const s3Scheme = "s3://"

// IsS3 reports whether the pattern or name addresses an S3 object.
func IsS3(uri string) bool {
	return strings.HasPrefix(uri, s3Scheme)
}

// ResolveSource picks the ShardSource for a pattern: S3 for `s3://` URIs,
// the local filesystem for everything else.
func ResolveSource(pattern string) (ShardSource, error) {
	if IsS3(pattern) {
		return NewS3SourceFromSession()
	}
	return LocalSource{}, nil
}

// SplitLines splits data on '\n'. A trailing newline does not produce an
// extra empty line, and a trailing '\r' is dropped from every line.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	count := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		count++
	}
	lines := make([]string, 0, count)
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		var line []byte
		if idx < 0 {
			line, data = data, nil
		} else {
			line, data = data[:idx], data[idx+1:]
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lines = append(lines, string(line))
	}
	return lines
}
