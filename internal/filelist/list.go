package filelist

import "github.com/mergebox/mergebox/internal/mergesdk"

// List is an ordered map of file records keyed by id. Order is upload order.
type List struct {
	order []string
	byID  map[string]mergesdk.FileRecord
}

func NewList() *List {
	return &List{
		byID: make(map[string]mergesdk.FileRecord),
	}
}

// Append adds records at the end in the given order and returns how many were
// new. A record whose id is already present only updates the name.
func (l *List) Append(records ...mergesdk.FileRecord) int {
	added := 0
	for _, rec := range records {
		if _, ok := l.byID[rec.ID]; !ok {
			l.order = append(l.order, rec.ID)
			added++
		}
		l.byID[rec.ID] = rec
	}
	return added
}

// Remove deletes the record with id. Unknown ids are a no-op.
func (l *List) Remove(id string) bool {
	if _, ok := l.byID[id]; !ok {
		return false
	}
	delete(l.byID, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

func (l *List) Clear() {
	l.order = nil
	clear(l.byID)
}

func (l *List) Has(id string) bool {
	_, ok := l.byID[id]
	return ok
}

func (l *List) Len() int {
	return len(l.order)
}

// Records returns a copy of the records in order
func (l *List) Records() []mergesdk.FileRecord {
	out := make([]mergesdk.FileRecord, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}
