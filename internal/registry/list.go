package registry

// urlList is an unordered sequence of urls with O(1) membership and
// swap-delete removal. index[u] is always the position of u in urls.
type urlList struct {
	urls  []string
	index map[string]int
}

func newURLList() *urlList {
	return &urlList{index: make(map[string]int)}
}

func (l *urlList) Len() int { return len(l.urls) }

func (l *urlList) Contains(u string) bool {
	_, ok := l.index[u]
	return ok
}

// Append adds u at the end. Callers guarantee u is not already present.
func (l *urlList) Append(u string) {
	l.index[u] = len(l.urls)
	l.urls = append(l.urls, u)
}

// Remove deletes u by moving the last element into its slot and shrinking
// the list by one. Reports whether u was present.
func (l *urlList) Remove(u string) bool {
	i, ok := l.index[u]
	if !ok {
		return false
	}
	last := len(l.urls) - 1
	if i != last {
		moved := l.urls[last]
		l.urls[i] = moved
		l.index[moved] = i
	}
	l.urls[last] = ""
	l.urls = l.urls[:last]
	delete(l.index, u)
	return true
}

// Snapshot returns a copy in current order. Never nil.
func (l *urlList) Snapshot() []string {
	out := make([]string, len(l.urls))
	copy(out, l.urls)
	return out
}
