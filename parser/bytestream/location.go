package bytestream

import "fmt"

// Location is the position of a character in the fed input. Line and Column
// start at 1, Offset is the byte offset starting at 0.
type Location struct {
	Line   int
	Column int
	Offset int
}

func startLocation() Location {
	return Location{Line: 1, Column: 1}
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// advance returns the location following a character read at l.
func (l Location) advance(ch Character, width int) Location {
	next := l
	next.Offset += width
	if ch.Kind == Scalar && ch.Value == '\n' {
		next.Line++
		next.Column = 1
		return next
	}
	next.Column++
	return next
}
