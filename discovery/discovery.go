// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

// Package discovery locates the task file by walking upward from the
// source root, and walks the build root for auxiliary ".d" fragment
// files (spec §6). It is grounded on
// _examples/original_source/src/main.rs's find_file, which walks
// Path::ancestors() looking for a fixed filename and treats an
// unreadable directory as a logged warning rather than a fatal error.
package discovery

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
)

// TaskFileName is the designated task-file name searched for while
// walking upward from the source root.
const TaskFileName = "Taskfile"

// FindTaskFile walks searchRoot and its ancestors looking for a file
// named TaskFileName, returning its full path. An unreadable directory
// along the way is logged and skipped, matching the original's
// "usually isn't a fatal error" treatment.
func FindTaskFile(searchRoot string, log zerolog.Logger) (string, bool) {
	dir, err := filepath.Abs(searchRoot)
	if err != nil {
		return "", false
	}
	for {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warn().Str("dir", dir).Err(err).Msg("unable to search directory for task file")
		} else {
			for _, e := range entries {
				if !e.IsDir() && e.Name() == TaskFileName {
					return filepath.Join(dir, e.Name()), true
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// FindFragments walks buildRoot recursively for files with a ".d"
// suffix, returning their paths in a stable (lexical, directory-major)
// order so fragment ingestion is deterministic across runs (spec §6:
// "Auxiliary fragment files with suffix .d under the build root are
// discovered by recursive directory walk and appended to the parse
// input").
func FindFragments(buildRoot string, log zerolog.Logger) []string {
	var found []string
	err := filepath.WalkDir(buildRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("unable to read entry while searching for fragments")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".d" {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		log.Warn().Str("dir", buildRoot).Err(err).Msg("unable to walk build root for fragments")
	}
	sort.Strings(found)
	return found
}
