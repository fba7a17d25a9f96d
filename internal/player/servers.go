package player

import (
	"slices"
	"strings"
	"unicode"

	"camcam/internal/movie"
	"camcam/internal/textnorm"
)

// Category is the language track a server group is inferred to carry.
type Category string

const (
	CategoryVietsub  Category = "vietsub"
	CategoryDubbed   Category = "long-tieng"
	CategoryNarrated Category = "thuyet-minh"
	CategoryOther    Category = "other"
)

type categoryStyle struct {
	Label string
	Icon  string
	Color string
}

var categoryOrder = []Category{CategoryVietsub, CategoryDubbed, CategoryNarrated, CategoryOther}

var categoryStyles = map[Category]categoryStyle{
	CategoryVietsub:  {Label: "Vietsub", Icon: "🇻🇳", Color: "#10b981"},
	CategoryDubbed:   {Label: "Lồng Tiếng", Icon: "🎙️", Color: "#f59e0b"},
	CategoryNarrated: {Label: "Thuyết Minh", Icon: "🗣️", Color: "#3b82f6"},
	CategoryOther:    {Label: "Server khác", Icon: "🎬", Color: "#8b5cf6"},
}

// Categorize infers the track from a server display name.
func Categorize(serverName string) Category {
	name := textnorm.Fold(serverName)
	switch {
	case strings.Contains(name, "vietsub"):
		return CategoryVietsub
	case strings.Contains(name, "long tieng"), hasWord(name, "long"):
		return CategoryDubbed
	case strings.Contains(name, "thuyet minh"):
		return CategoryNarrated
	default:
		return CategoryOther
	}
}

type ServerOption struct {
	Index  int
	Name   string
	Active bool
}

type ServerGroupView struct {
	Category Category
	Label    string
	Icon     string
	Color    string
	Servers  []ServerOption
}

// GroupServers buckets servers by category in a fixed order, skipping
// empty buckets. Indexes refer to the original server list.
func GroupServers(servers []movie.ServerGroup, active int) []ServerGroupView {
	buckets := make(map[Category][]ServerOption, len(categoryOrder))
	for i, s := range servers {
		c := Categorize(s.Name)
		buckets[c] = append(buckets[c], ServerOption{Index: i, Name: s.Name, Active: i == active})
	}

	var out []ServerGroupView
	for _, c := range categoryOrder {
		opts := buckets[c]
		if len(opts) == 0 {
			continue
		}
		style := categoryStyles[c]
		out = append(out, ServerGroupView{
			Category: c,
			Label:    style.Label,
			Icon:     style.Icon,
			Color:    style.Color,
			Servers:  opts,
		})
	}
	return out
}

// hasWord reports whether word appears in name as a whole word.
func hasWord(name, word string) bool {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return slices.Contains(fields, word)
}
