// Package pipeline implements the pipeline composer: an ergonomic way to
// build operator chains as an ordered list of self-contained stages plus
// a mode selector. Unlike a fixed set of lifecycle hooks, a pipeline's
// stage count and order are entirely caller-defined.
package pipeline

import (
	"github.com/mxkacsa/jsonla/relation"
	"github.com/mxkacsa/jsonla/value"
)

// Stage transforms one relation into the next. Every jsonla operator
// (select, project, join, ...) can be adapted to a Stage by partial
// application of its non-relation arguments.
type Stage func(relation.Relation) (relation.Relation, error)

// Mode selects how a Chain hands off its result: Eager materializes the
// whole output into a finite sequence before returning; Lazy returns a
// generator (a Relation that is still pulling from upstream) for the
// caller to drive further.
type Mode uint8

const (
	Eager Mode = iota
	Lazy
)

// Chain is an ordered list of Stages plus a hand-off Mode. It performs no
// optimization and preserves declared order, since operators may be
// order-sensitive.
type Chain struct {
	stages []Stage
	mode   Mode
}

// NewChain returns an empty Chain in the given Mode.
func NewChain(mode Mode) *Chain {
	return &Chain{mode: mode}
}

// Then appends stage, the left-associative `A then B` composition
// operator, and returns c for chaining.
func (c *Chain) Then(stage Stage) *Chain {
	c.stages = append(c.stages, stage)
	return c
}

// Len reports the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Run executes the chain against src. In Eager mode the result is fully
// collected and handed back as a finite Relation over a slice; in Lazy
// mode the returned Relation is still pulling from upstream and the
// caller drives it.
func (c *Chain) Run(src relation.Relation) (relation.Relation, error) {
	cur := src
	for _, stage := range c.stages {
		next, err := stage(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if c.mode == Eager {
		rows, err := relation.Collect(cur)
		if err != nil {
			return nil, err
		}
		return relation.FromSlice(rows), nil
	}
	return cur, nil
}

const batchKey = "_batch"

// Batch returns a Stage that groups every n consecutive records into one
// output record holding them under the reserved `_batch` array key, a
// convenience primitive for windowed handoff to a consumer that wants
// whole batches rather than a plan.RunWindowed-style internal loop.
// The last batch may be shorter than n.
func Batch(n int) Stage {
	return func(src relation.Relation) (relation.Relation, error) {
		return &batchRelation{src: src, n: n}, nil
	}
}

type batchRelation struct {
	src  relation.Relation
	n    int
	done bool
}

func (b *batchRelation) Next() (value.Record, bool, error) {
	if b.done {
		return value.Value{}, false, nil
	}
	items := make([]value.Value, 0, b.n)
	for len(items) < b.n {
		rec, ok, err := b.src.Next()
		if err != nil {
			return value.Value{}, false, err
		}
		if !ok {
			b.done = true
			break
		}
		items = append(items, rec)
	}
	if len(items) == 0 {
		return value.Value{}, false, nil
	}
	out := value.NewRecord()
	out.Set(batchKey, value.Array(items))
	return out, true, nil
}

func (b *batchRelation) Close() error { return b.src.Close() }

// Flatten returns a Stage that unwraps records produced by Batch back
// into an individual-record relation, the inverse convenience primitive.
func Flatten() Stage {
	return func(src relation.Relation) (relation.Relation, error) {
		return &flattenRelation{src: src}, nil
	}
}

type flattenRelation struct {
	src     relation.Relation
	pending []value.Value
	pos     int
}

func (f *flattenRelation) Next() (value.Record, bool, error) {
	for {
		if f.pos < len(f.pending) {
			rec := f.pending[f.pos]
			f.pos++
			return rec, true, nil
		}
		rec, ok, err := f.src.Next()
		if err != nil || !ok {
			return rec, ok, err
		}
		batch, has := rec.Get(batchKey)
		if !has || !batch.IsArray() {
			return rec, true, nil
		}
		f.pending = batch.Items()
		f.pos = 0
	}
}

func (f *flattenRelation) Close() error { return f.src.Close() }
