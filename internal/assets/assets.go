// Package assets discovers uploadable asset folders under the inbox
// directory.
//
// An asset folder is a directory containing exactly one video file, exactly
// one metadata sidecar, and an optional thumbnail. Folders holding only one
// of the pair, or more than one file of a kind, are reported as skips
// rather than failing the scan.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ytpub/internal/services"
)

const (
	videoExt     = ".mp4"
	sidecarExt   = ".json"
	thumbnailExt = ".jpg"
)

// Folder describes one discovered asset folder.
type Folder struct {
	Dir           string
	VideoPath     string
	SidecarPath   string
	ThumbnailPath string
}

// Skip records a folder that was excluded from the scan and why.
type Skip struct {
	Dir    string
	Reason string
}

// Discover walks root and returns every valid asset folder in lexical
// order. Directories holding neither a video nor a sidecar are ignored
// silently; incomplete or ambiguous folders are returned as skips.
func Discover(root string) ([]Folder, []Skip, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "scan", "stat inbox", root, err)
	}
	if !info.IsDir() {
		return nil, nil, services.Wrap(services.ErrConfiguration, "scan", "stat inbox", fmt.Sprintf("%s is not a directory", root), nil)
	}

	var folders []Folder
	var skips []Skip
	err = filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		folder, skip, ok, err := inspect(path)
		if err != nil {
			return err
		}
		if skip != nil {
			skips = append(skips, *skip)
			return filepath.SkipDir
		}
		if ok {
			folders = append(folders, folder)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "scan", "walk inbox", root, err)
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].Dir < folders[j].Dir })
	sort.Slice(skips, func(i, j int) bool { return skips[i].Dir < skips[j].Dir })
	return folders, skips, nil
}

// Inspect examines a single directory as an asset folder. It returns
// ok=false when the directory holds no video file.
func Inspect(dir string) (Folder, bool, error) {
	folder, skip, ok, err := inspect(dir)
	if err != nil {
		return Folder{}, false, err
	}
	if skip != nil {
		return Folder{}, false, services.Wrap(services.ErrValidation, "scan", "inspect folder", skip.Reason, nil)
	}
	return folder, ok, nil
}

func inspect(dir string) (Folder, *Skip, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Folder{}, nil, false, fmt.Errorf("read directory %s: %w", dir, err)
	}

	counts := map[string][]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case videoExt, sidecarExt, thumbnailExt:
			counts[ext] = append(counts[ext], filepath.Join(dir, name))
		}
	}

	for _, ext := range []string{videoExt, sidecarExt, thumbnailExt} {
		if len(counts[ext]) > 1 {
			return Folder{}, &Skip{
				Dir:    dir,
				Reason: fmt.Sprintf("multiple %s files in %s", ext, dir),
			}, false, nil
		}
	}

	videos := counts[videoExt]
	sidecars := counts[sidecarExt]
	if len(videos) == 0 && len(sidecars) == 0 {
		return Folder{}, nil, false, nil
	}
	if len(videos) == 0 {
		return Folder{}, &Skip{Dir: dir, Reason: fmt.Sprintf("no video file in %s", dir)}, false, nil
	}
	if len(sidecars) == 0 {
		return Folder{}, &Skip{Dir: dir, Reason: fmt.Sprintf("no metadata sidecar in %s", dir)}, false, nil
	}

	folder := Folder{Dir: dir, VideoPath: videos[0], SidecarPath: sidecars[0]}
	if paths := counts[thumbnailExt]; len(paths) == 1 {
		folder.ThumbnailPath = paths[0]
	}
	return folder, nil, true, nil
}
