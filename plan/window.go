package plan

import (
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

// MaterializingOp is a materializing operator applied within one window
// batch (e.g. relation.Sort bound to its keys, or group.By+Aggregate
// bound to their specs, wrapped to the relation.Relation shape).
type MaterializingOp func(batch relation.Relation) (relation.Relation, error)

// RunWindowed partitions src into fixed-size batches of n records and
// runs op independently within each batch, concatenating the results in
// batch order. The last batch may be shorter than n. src is closed once
// fully drained.
func RunWindowed(src relation.Relation, n int, op MaterializingOp) (relation.Relation, error) {
	var out []value.Record
	defer src.Close()
	for {
		batch := make([]value.Record, 0, n)
		for len(batch) < n {
			rec, ok, err := src.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			batch = append(batch, rec)
		}
		if len(batch) == 0 {
			break
		}
		result, err := op(relation.FromSlice(batch))
		if err != nil {
			return nil, err
		}
		rows, err := relation.Collect(result)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if len(batch) < n {
			break
		}
	}
	return relation.FromSlice(out), nil
}
