package review

import (
	"context"

	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/search"
)

// SearchResults holds the matches of one query per stage. Every stage has an
// entry, possibly empty.
type SearchResults map[logparser.Stage][]search.Match

// Total returns the number of matches across all stages.
func (s SearchResults) Total() int {
	n := 0
	for _, m := range s {
		n += len(m)
	}
	return n
}

// Search answers a point query straight from raw log text without running an
// analysis. An empty name yields empty results for every stage.
func Search(ctx context.Context, logs map[logparser.Stage]string, name string, contextLines int) (SearchResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return SearchResults(search.FromText(logs).FindAll(name, contextLines)), nil
}
