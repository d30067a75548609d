package resources

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/yargevad/filepathx"
)

// LocalSource reads shards from the local filesystem. Patterns may use `**`
// to match any number of directories.
type LocalSource struct{}

func (LocalSource) Glob(pattern string) ([]string, error) {
	matches, err := filepathx.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "globbing %q", pattern)
	}
	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		if stat, statErr := os.Stat(match); statErr != nil {
			return nil, statErr
		} else if !stat.IsDir() {
			paths = append(paths, match)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadShard maps the file into memory and copies its lines out before
// unmapping it.
func (LocalSource) ReadShard(name string) (*Shard, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening shard %s", name)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat shard %s", name)
	}
	shard := &Shard{Name: name, Size: uint64(stat.Size())}
	if stat.Size() == 0 {
		return shard, nil
	}
	mapped, err := readMmap(file)
	if err != nil {
		return nil, errors.Wrapf(err, "error trying to mmap shard %s", name)
	}
	shard.Lines = SplitLines(mapped)
	if err := mapped.Unmap(); err != nil {
		return nil, errors.Wrapf(err, "unmapping shard %s", name)
	}
	return shard, nil
}

// ReadLines reads a local text file into lines.
func ReadLines(path string) ([]string, error) {
	shard, err := LocalSource{}.ReadShard(path)
	if err != nil {
		return nil, err
	}
	return shard.Lines, nil
}
