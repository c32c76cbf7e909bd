package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"zonealert/internal/replay"
)

func printLogSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	recs, err := replay.ReadFile(path)
	if err != nil {
		return err
	}
	s := replay.Summarize(recs)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "sentences: %d\n", s.Sentences)
	fmt.Fprintf(w, "invalid_sentences: %d\n", s.Invalid)
	fmt.Fprintf(w, "active_fixes: %d\n", s.ActiveFixes)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	types := make([]string, 0, len(s.TypeCounts))
	for k := range s.TypeCounts {
		types = append(types, k)
	}
	sort.Strings(types)
	fmt.Fprintf(w, "type_counts:\n")
	for _, k := range types {
		fmt.Fprintf(w, "  %s: %d\n", k, s.TypeCounts[k])
	}
	return nil
}
