package main

import (
	"fmt"
	"os"

	"github.com/mxkacsa/jsonla/plan"
	"github.com/mxkacsa/jsonla/relation"
)

// planWindowedSort runs sort per fixed-size window instead of globally,
// capping a materializing operator's memory to O(window) at the cost of
// only a per-window ordering guarantee.
func planWindowedSort(src relation.Relation, keys []relation.SortKey, n int) (relation.Relation, error) {
	result, err := plan.Classify([]plan.Step{{Name: "sort", Kind: relation.KindMaterializing}},
		plan.Options{Window: n})
	if err != nil {
		src.Close()
		return nil, err
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "jsonla: warning:", w.String())
	}
	return plan.RunWindowed(src, n, func(batch relation.Relation) (relation.Relation, error) {
		return relation.Sort(batch, keys)
	})
}
