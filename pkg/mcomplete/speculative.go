// Shared speculative re-parse helper used by the field-access analysis
// (spec.md §4.H) to disambiguate a trailing, not-yet-committed "[" against
// the two grammars it could open. Grounded on the "most tokens consumed
// wins" scoring and errgroup-based concurrent racing of independent
// candidates that vito/dang's pkg/querybuilder uses for its own fan-out.
package mcomplete

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mparse"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// speculativeEntry names one candidate grammar entry point to race, most
// preferred first (used to break a tokens-consumed tie).
type speculativeEntry struct {
	Label string
	Read  func(*mparse.State) (mnode.XorNode, error)
}

// speculativeResult is one entry point's outcome against its own fresh
// trial state: the node it produced (possibly invalid, on hard failure), the
// resulting map (StartContext mutates the trial map even when the
// overall read fails), and how many tokens it consumed.
type speculativeResult struct {
	Label    string
	Node     mnode.XorNode
	Map      *nodeidmap.Map
	Consumed int
	Err      error
}

// raceSpeculativeParses runs every entry point concurrently, each against
// its own fresh map rewound to state's current token index, and returns the
// one that consumed the most tokens, preferring the earlier entry on a tie.
// Every entry point here is a root grammar production (mparse/entrypoints.go
// calls each with a nil parent), so a real clone of state won't do: state's
// own map already has a root (the live document), and nodeidmap.Map.StartContext
// errors outright on a second root. A fresh map shares nothing with the live
// parse but the same underlying Tokens slice, which is all a trial parse
// needs to compute correct positions.
func raceSpeculativeParses(ctx context.Context, state *mparse.State, entries []speculativeEntry) speculativeResult {
	results := make([]speculativeResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(entries))
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			trial := &mparse.State{Tokens: state.Tokens, TokenIndex: state.TokenIndex, Map: nodeidmap.New()}
			start := trial.TokenIndex
			node, err := entry.Read(trial)
			results[i] = speculativeResult{
				Label:    entry.Label,
				Node:     node,
				Map:      trial.Map,
				Consumed: trial.TokenIndex - start,
				Err:      err,
			}
			return nil
		})
	}
	_ = g.Wait()

	best := results[0]
	for _, r := range results[1:] {
		if r.Consumed > best.Consumed {
			best = r
		}
	}
	return best
}
