// Package pagination computes the page-number strip shown under the task
// list. The strip mirrors the dashboard contract: short page counts are shown
// in full, longer ones collapse the middle behind gap markers.
package pagination

// Entry is one slot in the page strip. Gap entries render as an ellipsis and
// are not selectable.
type Entry struct {
	Page int
	Gap  bool
}

func page(n int) Entry { return Entry{Page: n} }

var gap = Entry{Gap: true}

// Window returns the entries to display for the given current page and total
// page count.
//
//	total <= 5            -> 1 2 3 4 5
//	current <= 3          -> 1 2 3 … total
//	current >= total-2    -> 1 … total-2 total-1 total
//	otherwise             -> 1 … current-1 current current+1 … total
func Window(current, total int) []Entry {
	if total <= 0 {
		return nil
	}
	if total <= 5 {
		entries := make([]Entry, 0, total)
		for n := 1; n <= total; n++ {
			entries = append(entries, page(n))
		}
		return entries
	}
	switch {
	case current <= 3:
		return []Entry{page(1), page(2), page(3), gap, page(total)}
	case current >= total-2:
		return []Entry{page(1), gap, page(total - 2), page(total - 1), page(total)}
	default:
		return []Entry{page(1), gap, page(current - 1), page(current), page(current + 1), gap, page(total)}
	}
}

// Clamp bounds a requested page to [1, total]. A zero total clamps to 1 so an
// empty list still has a well-formed indicator.
func Clamp(requested, total int) int {
	if requested < 1 {
		return 1
	}
	if total >= 1 && requested > total {
		return total
	}
	return requested
}
