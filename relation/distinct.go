package relation

import "github.com/mxkacsa/jsonla/value"

// Distinct maintains a set of seen record hashes; memory is O(#unique).
// Emission order is first-seen order. Hash collisions within a bucket
// are resolved by a linear scan against structural equality, the same
// collision policy Join's index uses.
func Distinct(src Relation) Relation {
	seen := make(map[uint64][]value.Record)
	return &funcRelation{
		next: func() (value.Record, bool, error) {
			for {
				rec, ok, err := src.Next()
				if err != nil || !ok {
					return rec, ok, err
				}
				h := value.Hash(rec)
				bucket := seen[h]
				dup := false
				for _, b := range bucket {
					if value.Equal(b, rec) {
						dup = true
						break
					}
				}
				if dup {
					continue
				}
				seen[h] = append(bucket, rec)
				return rec, true, nil
			}
		},
		close: src.Close,
	}
}
