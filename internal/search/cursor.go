package search

// Cursor selects one of n matches. Next and Prev wrap around.
type Cursor struct {
	pos int
	n   int
}

// NewCursor returns a cursor over n matches positioned at the first.
func NewCursor(n int) Cursor {
	return Cursor{n: max(0, n)}
}

// At returns a cursor over n matches positioned at i modulo n.
func At(n, i int) Cursor {
	c := NewCursor(n)
	c.pos = c.wrap(i)
	return c
}

// Pos returns the selected index, or -1 when there are no matches.
func (c Cursor) Pos() int {
	if c.n == 0 {
		return -1
	}
	return c.pos
}

// Len returns the number of matches.
func (c Cursor) Len() int { return c.n }

// Next moves to the following match, wrapping to the first.
func (c Cursor) Next() Cursor {
	c.pos = c.wrap(c.pos + 1)
	return c
}

// Prev moves to the previous match, wrapping to the last.
func (c Cursor) Prev() Cursor {
	c.pos = c.wrap(c.pos - 1)
	return c
}

func (c Cursor) wrap(i int) int {
	if c.n == 0 {
		return 0
	}
	return ((i % c.n) + c.n) % c.n
}
