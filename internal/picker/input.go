package picker

// queryLine is the editable abbreviation at the prompt. Methods that can
// change the text report whether they did, so the picker knows when a
// re-rank is due.
type queryLine struct {
	runes  []rune
	cursor int
}

func (q *queryLine) String() string {
	return string(q.runes)
}

func (q *queryLine) Len() int {
	return len(q.runes)
}

func (q *queryLine) Cursor() int {
	return q.cursor
}

// Prefix returns the text before the cursor, for cursor positioning.
func (q *queryLine) Prefix() string {
	return string(q.runes[:q.cursor])
}

func (q *queryLine) Insert(r rune) {
	q.runes = append(q.runes, 0)
	copy(q.runes[q.cursor+1:], q.runes[q.cursor:])
	q.runes[q.cursor] = r
	q.cursor++
}

func (q *queryLine) Backspace() bool {
	if q.cursor == 0 {
		return false
	}
	q.runes = append(q.runes[:q.cursor-1], q.runes[q.cursor:]...)
	q.cursor--
	return true
}

func (q *queryLine) Delete() bool {
	if q.cursor >= len(q.runes) {
		return false
	}
	q.runes = append(q.runes[:q.cursor], q.runes[q.cursor+1:]...)
	return true
}

// DeleteWord removes the word before the cursor along with any spaces
// between it and the cursor.
func (q *queryLine) DeleteWord() bool {
	if q.cursor == 0 {
		return false
	}
	i := q.cursor
	for i > 0 && q.runes[i-1] == ' ' {
		i--
	}
	for i > 0 && q.runes[i-1] != ' ' {
		i--
	}
	q.runes = append(q.runes[:i], q.runes[q.cursor:]...)
	q.cursor = i
	return true
}

func (q *queryLine) Clear() bool {
	if len(q.runes) == 0 {
		return false
	}
	q.runes = q.runes[:0]
	q.cursor = 0
	return true
}

func (q *queryLine) Left() {
	if q.cursor > 0 {
		q.cursor--
	}
}

func (q *queryLine) Right() {
	if q.cursor < len(q.runes) {
		q.cursor++
	}
}

func (q *queryLine) Home() {
	q.cursor = 0
}

func (q *queryLine) End() {
	q.cursor = len(q.runes)
}
