package dotosu

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"osukit/internal/logging"
)

// DecodeArchive decodes every .osu file of an .osz archive held in
// memory, keyed by file name. Entries inside directories are skipped.
func DecodeArchive(data []byte) (map[string]*Beatmap, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("dotosu: open osz: %w", err)
	}

	out := make(map[string]*Beatmap)
	for _, file := range zr.File {
		if !strings.EqualFold(filepath.Ext(file.Name), ".osu") {
			continue
		}
		if file.FileInfo().IsDir() || strings.ContainsAny(file.Name, `/\`) {
			logging.Logger().Warn("skipping nested osz entry", "name", file.Name)
			continue
		}
		b, err := decodeZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("dotosu: %s: %w", file.Name, err)
		}
		out[file.Name] = b
	}
	return out, nil
}

func decodeZipFile(file *zip.File) (*Beatmap, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(io.LimitReader(rc, int64(file.UncompressedSize64)+1))
}

// DecodeDir decodes every .osu file below dir in path order. Files that
// fail to decode are skipped; the first failure is returned alongside the
// maps that did decode.
func DecodeDir(dir string) ([]*Beatmap, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var paths []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".osu") {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(paths)

	beatmaps := make([]*Beatmap, 0, len(paths))
	var firstErr error
	for _, p := range paths {
		b, err := DecodeFile(p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		beatmaps = append(beatmaps, b)
	}
	if firstErr != nil {
		return beatmaps, fmt.Errorf("decoded %d/%d .osu files: %w", len(beatmaps), len(paths), firstErr)
	}
	return beatmaps, nil
}
