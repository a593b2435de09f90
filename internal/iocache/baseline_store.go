package iocache

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// maxBaselineLine bounds a single baseline line; kotlinc messages can be long but not this long.
const maxBaselineLine = 1 << 20

// FileBaselineStore keeps baselines as sorted, newline-terminated text files.
type FileBaselineStore struct{}

var _ contract.BaselineStore = FileBaselineStore{} // Compile-time check

// NewFileBaselineStore returns the filesystem baseline store.
func NewFileBaselineStore() FileBaselineStore {
	return FileBaselineStore{}
}

// Load reads the baseline at path. A missing file is not an error.
func (FileBaselineStore) Load(path string) (schema.Baseline, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return schema.Baseline{Entries: map[string]struct{}{}}, nil
	}
	if err != nil {
		return schema.Baseline{}, contract.WrapBaselineRead(path, err)
	}
	defer func() { _ = f.Close() }()

	entries := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxBaselineLine)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return schema.Baseline{}, contract.WrapBaselineRead(path, err)
	}
	return schema.Baseline{Entries: entries, Existed: true}, nil
}

// Save writes entries sorted to path through a temp file and rename.
// Identical content is left untouched and an empty set deletes the file.
func (FileBaselineStore) Save(path string, entries map[string]struct{}) (schema.SaveResult, error) {
	result := schema.SaveResult{Path: path, Count: len(entries)}

	if len(entries) == 0 {
		err := os.Remove(path)
		switch {
		case err == nil:
			result.Pruned = true
		case errors.Is(err, fs.ErrNotExist):
		default:
			return result, contract.WrapBaselineWrite(path, err)
		}
		return result, nil
	}

	content := renderBaseline(entries)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return result, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, contract.WrapBaselineWrite(path, err)
	}
	if err := writeFileAtomic(dir, path, content); err != nil {
		return result, contract.WrapBaselineWrite(path, err)
	}
	result.Written = true
	return result, nil
}

// RemoveAll deletes prefixed files in projectDir, then the prefixed snapshots in buildDir and
// buildDir itself. Individual removal failures are logged and skipped; only an unreadable
// projectDir is an error.
func (FileBaselineStore) RemoveAll(prefix, projectDir, buildDir string) ([]string, error) {
	removed, err := removePrefixed(prefix, projectDir)
	if err != nil {
		return nil, err
	}

	if buildDir == "" {
		return removed, nil
	}
	if _, err := os.Stat(buildDir); err != nil {
		return removed, nil
	}
	if snapshots, err := removePrefixed(prefix, buildDir); err == nil {
		removed = append(removed, snapshots...)
	}
	if err := os.RemoveAll(buildDir); err != nil {
		contract.Logger().Warn().Str("path", buildDir).Err(err).Msg("could not remove scratch directory")
	} else {
		removed = append(removed, buildDir)
	}
	return removed, nil
}

func removePrefixed(prefix, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var removed []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			contract.Logger().Warn().Str("path", p).Err(err).Msg("could not remove baseline")
			continue
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// List returns the baseline files in projectDir, sorted by name.
func (s FileBaselineStore) List(prefix, projectDir string) ([]schema.BaselineInfo, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("list baselines in %s: %w", projectDir, err)
	}

	var infos []schema.BaselineInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, schema.BaselineFileExt) {
			continue
		}
		p := filepath.Join(projectDir, name)
		fi, err := e.Info()
		if err != nil {
			return nil, contract.WrapBaselineRead(p, err)
		}
		baseline, err := s.Load(p)
		if err != nil {
			return nil, err
		}
		suffix := strings.TrimSuffix(strings.TrimPrefix(name, prefix), schema.BaselineFileExt)
		infos = append(infos, schema.BaselineInfo{
			FileName:  name,
			Path:      p,
			Suffix:    strings.TrimPrefix(suffix, "-"),
			Warnings:  len(baseline.Entries),
			SizeBytes: fi.Size(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].FileName < infos[j].FileName })
	return infos, nil
}

// renderBaseline produces the on-disk form: sorted lines, each terminated by '\n'.
func renderBaseline(entries map[string]struct{}) []byte {
	var buf bytes.Buffer
	for _, w := range schema.SortedKeys(entries) {
		buf.WriteString(w)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func writeFileAtomic(dir, path string, content []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
