package stats

import (
	"sort"
	"strings"

	"dumpstats/internal/table"
)

// WordCount is one ranked word.
type WordCount struct {
	Word  string
	Count int
}

// CountWords splits every value on whitespace, strips everything but ASCII
// letters, lowercases, and counts. The result is sorted by descending
// count, ties broken alphabetically.
func CountWords(contents []table.Value) []WordCount {
	counts := map[string]int{}
	for _, v := range contents {
		if v.IsNull() {
			continue
		}
		for _, field := range strings.Fields(v.Key()) {
			if w := cleanWord(field); w != "" {
				counts[w]++
			}
		}
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

func cleanWord(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// TopWords returns the first n ranked words. n < 0 or n larger than the
// list returns every word.
func TopWords(ranked []WordCount, n int) []WordCount {
	if n < 0 || n > len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// TotalWords sums the counts.
func TotalWords(ranked []WordCount) int {
	total := 0
	for _, w := range ranked {
		total += w.Count
	}
	return total
}
