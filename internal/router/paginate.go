package router

import "fmt"

const visiblePages = 5

type PageLink struct {
	Number int
	Active bool
	Gap    bool
}

type Pagination struct {
	Page       int
	TotalPages int
	Links      []PageLink
	HasPrev    bool
	HasNext    bool
	Prev       int
	Next       int
	Range      string // "21-40 / 93"
}

// Paginate clamps page into range and returns the bounds of that page
// within total items. It returns nil pagination for a single page.
func Paginate(total, page, perPage int) (p *Pagination, start, end int) {
	if perPage <= 0 {
		perPage = 20
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start = (page - 1) * perPage
	end = min(start+perPage, total)
	if pages == 1 {
		return nil, start, end
	}

	first := max(1, page-visiblePages/2)
	last := min(pages, first+visiblePages-1)
	if last-first+1 < visiblePages {
		first = max(1, last-visiblePages+1)
	}

	var links []PageLink
	if first > 1 {
		links = append(links, PageLink{Number: 1})
		if first > 2 {
			links = append(links, PageLink{Gap: true})
		}
	}
	for i := first; i <= last; i++ {
		links = append(links, PageLink{Number: i, Active: i == page})
	}
	if last < pages {
		if last < pages-1 {
			links = append(links, PageLink{Gap: true})
		}
		links = append(links, PageLink{Number: pages})
	}

	return &Pagination{
		Page:       page,
		TotalPages: pages,
		Links:      links,
		HasPrev:    page > 1,
		HasNext:    page < pages,
		Prev:       page - 1,
		Next:       page + 1,
		Range:      fmt.Sprintf("%d-%d / %d", start+1, end, total),
	}, start, end
}
