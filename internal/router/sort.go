package router

import (
	"slices"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"camcam/internal/movie"
)

type SortMode string

const (
	SortNewest   SortMode = "newest"
	SortOldest   SortMode = "oldest"
	SortNameAZ   SortMode = "name-az"
	SortNameZA   SortMode = "name-za"
	SortYearDesc SortMode = "year-desc"
	SortYearAsc  SortMode = "year-asc"
)

type SortOption struct {
	Mode  SortMode
	Label string
}

var SortOptions = []SortOption{
	{SortNewest, "Mới nhất"},
	{SortOldest, "Cũ nhất"},
	{SortNameAZ, "Tên A-Z"},
	{SortNameZA, "Tên Z-A"},
	{SortYearDesc, "Năm giảm dần"},
	{SortYearAsc, "Năm tăng dần"},
}

// ParseSort maps unknown values to SortNewest.
func ParseSort(s string) SortMode {
	for _, o := range SortOptions {
		if string(o.Mode) == s {
			return o.Mode
		}
	}
	return SortNewest
}

// Sort returns a sorted copy. Newest keeps the API order; the API exposes
// no popularity rank.
func Sort(movies []movie.Summary, mode SortMode) []movie.Summary {
	out := slices.Clone(movies)

	switch mode {
	case SortOldest:
		slices.Reverse(out)
	case SortNameAZ, SortNameZA:
		c := collate.New(language.Vietnamese)
		sort.SliceStable(out, func(i, j int) bool {
			if mode == SortNameZA {
				return c.CompareString(out[j].Name, out[i].Name) < 0
			}
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
	case SortYearDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	case SortYearAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	}
	return out
}
