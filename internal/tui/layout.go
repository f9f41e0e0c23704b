package tui

import (
	"github.com/balkashynov/taskboard/internal/board"
	"github.com/balkashynov/taskboard/internal/models"
)

// Screen geometry of the board view, in cells. Rows from the top:
// header (2), column boxes, footer (2). Inside a box: border, heading,
// blank, then cards of cardHeight rows each.
const (
	headerHeight = 2
	footerHeight = 2
	columnGap    = 1
	cardHeight   = 4
	boxTopChrome = 3 // border, heading, blank
	minColWidth  = 16
)

type layout struct {
	width     int
	height    int
	colWidth  int
	boxHeight int
	visible   int // cards that fit in a column
	scroll    [3]int
}

func newLayout(width, height int, scroll [3]int) layout {
	l := layout{width: width, height: height, scroll: scroll}
	l.colWidth = (width - 2*columnGap) / 3
	if l.colWidth < minColWidth {
		l.colWidth = minColWidth
	}
	l.boxHeight = height - headerHeight - footerHeight
	if l.boxHeight < boxTopChrome+1+cardHeight {
		l.boxHeight = boxTopChrome + 1 + cardHeight
	}
	l.visible = (l.boxHeight - boxTopChrome - 1) / cardHeight
	if l.visible < 1 {
		l.visible = 1
	}
	return l
}

// columnAt maps x to a column index; gaps between boxes belong to no column
func (l layout) columnAt(x int) (int, bool) {
	if x < 0 {
		return 0, false
	}
	c := x / (l.colWidth + columnGap)
	if c > 2 || x-c*(l.colWidth+columnGap) >= l.colWidth {
		return 0, false
	}
	return c, true
}

// hit returns what sits under (x, y): a card, the empty part of a column,
// or nothing when the pointer is outside every column box.
func (l layout) hit(b *board.Board, x, y int) (board.Target, bool) {
	c, ok := l.columnAt(x)
	if !ok {
		return board.Target{}, false
	}
	top := headerHeight
	if y < top || y >= top+l.boxHeight {
		return board.Target{}, false
	}
	status := models.BoardStatuses[c]
	target := board.Target{Column: status}

	rel := y - top - boxTopChrome
	if rel < 0 {
		return target, true
	}
	slot := rel / cardHeight
	if slot >= l.visible {
		return target, true
	}
	if task, found := b.At(status, l.scroll[c]+slot); found {
		target.TaskID = task.ID
	}
	return target, true
}

// follow scrolls column c so that index is visible
func (l *layout) follow(c, index, length int) {
	if index < l.scroll[c] {
		l.scroll[c] = index
	}
	if index >= l.scroll[c]+l.visible {
		l.scroll[c] = index - l.visible + 1
	}
	if maxScroll := length - l.visible; l.scroll[c] > maxScroll {
		l.scroll[c] = maxScroll
	}
	if l.scroll[c] < 0 {
		l.scroll[c] = 0
	}
}
