package logparser

// tally collects result records for one textual form (e.g. pytest's verbose
// lines) in first-seen order.
type tally struct {
	order   []string
	records map[string][]string
}

func newTally() *tally {
	return &tally{records: make(map[string][]string)}
}

func (t *tally) add(name, status string) {
	if _, ok := t.records[name]; !ok {
		t.order = append(t.order, name)
	}
	t.records[name] = append(t.records[name], status)
}

// mergeTallies combines forms that echo the same results (a runner's live lines
// and its closing summary). For each name the form with more records wins, so
// an echo is not mistaken for a duplicate run while a genuine rerun inside one
// form still is.
func mergeTallies(forms ...*tally) []Entry {
	seen := make(map[string]bool)
	var entries []Entry

	for _, f := range forms {
		for _, name := range f.order {
			if seen[name] {
				continue
			}
			seen[name] = true

			var best []string
			for _, other := range forms {
				if recs := other.records[name]; len(recs) > len(best) {
					best = recs
				}
			}
			for _, status := range best {
				entries = append(entries, Entry{TestName: name, Status: status, Occurrences: 1})
			}
		}
	}

	return entries
}
