// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

// Package fragments ingests auxiliary ".d" task-file fragments
// discovered under the build root, appending their contents to the
// main task-file input per spec §6. Unlike a C compiler's ".d" files
// (auto-generated header dependencies), these are already-produced
// fragments of the same task-file language the tool ingests as-is —
// spec §1's Non-goals explicitly exclude generating them, only
// reading them.
package fragments

import (
	"os"

	"github.com/rs/zerolog"
)

// Read loads each fragment's contents in order, logging and skipping
// any that cannot be read (spec §7: "Unreadable auxiliary fragment
// file: warning, skipped" — never fatal).
func Read(paths []string, log zerolog.Logger) []string {
	contents := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			log.Warn().Str("path", p).Err(err).Msg("unable to read fragment, skipping")
			continue
		}
		contents = append(contents, string(b))
	}
	return contents
}
