package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/themusiclab/infant-speech-song/fileutils"
	"github.com/themusiclab/infant-speech-song/textgrid"
)

// listFiles returns the regular files in dir accepted by keep, sorted by name.
// Hidden files, including temp files left by an interrupted write, are skipped.
func listFiles(dir string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || fileutils.IsTemp(e.Name()) || !keep(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func hasExt(ext string) func(string) bool {
	return func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ext)
	}
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func subclipName(session string, n int) string {
	return session + "_" + strconv.Itoa(n)
}

// parseSubclipName splits "{session}_{n}" at the last underscore.
// n must be a positive decimal integer.
func parseSubclipName(name string) (session string, index int, ok bool) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return name[:i], n, true
}

// groupSubclips maps session id to its subclips ordered by numeric index,
// so "_2" comes before "_10".
func groupSubclips(refs []SubclipRef) map[string][]SubclipRef {
	groups := map[string][]SubclipRef{}
	for _, r := range refs {
		groups[r.Session] = append(groups[r.Session], r)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Index < g[j].Index })
	}
	return groups
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkOrder rejects labeled intervals that overlap or go backwards in time.
// Subclip numbering relies on file order matching time order.
func checkOrder(ivs []textgrid.Interval) error {
	for i := 1; i < len(ivs); i++ {
		if ivs[i].XMin < ivs[i-1].XMax {
			return fmt.Errorf("%w: interval %d starts at %v before previous end %v",
				ErrIntervalOrder, i+1, ivs[i].XMin, ivs[i-1].XMax)
		}
	}
	return nil
}

// gaps reports missing indices in an ordered group, e.g. [3 4] for 1,2,5.
func gaps(g []SubclipRef) []int {
	var out []int
	want := 1
	for _, r := range g {
		for ; want < r.Index; want++ {
			out = append(out, want)
		}
		want = r.Index + 1
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
