package taskqueue

import "sort"

// Queue is an ordered sequence of enabled Entry values, sorted by Index
// ascending with ties broken by original insertion order. Built once per
// run_daily invocation and consumed in order by the Engine Session
// Manager; it never mutates after Build returns.
type Queue struct {
	entries []Entry
}

// Build filters daily entries to enable=true and sorts by Index, tie
// broken by the order names appears in (matching the insertion order of
// the source config map).
func Build(named map[string]Parameters, order []string) Queue {
	entries := make([]Entry, 0, len(named))
	for seq, name := range order {
		params, ok := named[name]
		if !ok || !params.Enable {
			continue
		}
		entries = append(entries, Entry{Name: name, Parameters: params, seq: seq})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Parameters.Index != entries[j].Parameters.Index {
			return entries[i].Parameters.Index < entries[j].Parameters.Index
		}
		return entries[i].seq < entries[j].seq
	})

	return Queue{entries: entries}
}

// Entries returns the queue's entries in submission order.
func (q Queue) Entries() []Entry {
	return q.entries
}

// Len reports the number of entries in the queue.
func (q Queue) Len() int {
	return len(q.entries)
}
