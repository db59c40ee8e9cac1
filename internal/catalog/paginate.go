package catalog

// DefaultPageSize is the number of cards per catalog page.
const DefaultPageSize = 12

// Page is one slice of a filtered list.
type Page struct {
	Items      []Entry
	Number     int
	Size       int
	Total      int
	TotalPages int
}

// Paginate returns page number of entries. A number left over from a larger
// result set is pulled back to the last page; navigation requests go through
// GoTo first.
func Paginate(entries []Entry, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(entries)
	totalPages := (total + size - 1) / size
	number = min(number, max(totalPages, 1))
	number = max(number, 1)

	p := Page{Number: number, Size: size, Total: total, TotalPages: totalPages}
	start := (number - 1) * size
	if start >= total {
		p.Items = []Entry{}
		return p
	}
	end := min(start+size, total)
	p.Items = entries[start:end]
	return p
}

// From is the 1-based position of the first item on the page, or 0 when empty.
func (p Page) From() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Number-1)*p.Size + 1
}

// To is the 1-based position of the last item on the page.
func (p Page) To() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.From() + len(p.Items) - 1
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// GoTo returns the page to show after a navigation request. Requests outside
// [1, totalPages] leave the current page unchanged.
func GoTo(current, requested, totalPages int) int {
	if requested < 1 || requested > totalPages {
		return current
	}
	return requested
}

// PageLink is one element of the pagination bar.
type PageLink struct {
	Number  int
	Current bool
	Gap     bool
}

// Window lays out the pagination bar: first and last page, the current page
// with two neighbours each side, and a gap marker three pages away from it.
// A single page yields no links.
func Window(current, totalPages int) []PageLink {
	if totalPages <= 1 {
		return nil
	}
	var links []PageLink
	for i := 1; i <= totalPages; i++ {
		switch {
		case i == 1 || i == totalPages || (i >= current-2 && i <= current+2):
			links = append(links, PageLink{Number: i, Current: i == current})
		case i == current-3 || i == current+3:
			links = append(links, PageLink{Gap: true})
		}
	}
	return links
}
