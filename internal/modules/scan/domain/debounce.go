package domain

import (
	"cmp"
	"slices"
	"time"
)

// Sighting is the last time a signature was decoded and the result it came
// with.
type Sighting struct {
	Timestamp time.Duration
	Result    ReadResult
}

type SignatureMap map[Signature]Sighting

// Detection is one entry of an emitted result set.
type Detection struct {
	Result    ReadResult
	Signature Signature
	// SeenAt is the tick timestamp of the decode that produced Result.
	SeenAt time.Duration
	// New is set on the first decode of a signature.
	New bool
	// Debounced marks a result carried forward from an earlier decode
	// because its symbol vanished less than the debounce window ago.
	Debounced bool
}

// Debounce merges the results of the decode triggered at ts with the
// previous signature map. It returns the next map, the full result set
// (current results first, then carried ones) and the number of signatures
// not present in prev.
func Debounce(prev SignatureMap, results []ReadResult, ts, window time.Duration) (SignatureMap, []Detection, int) {
	next := make(SignatureMap, len(results))
	items := make([]Detection, 0, len(results))
	fresh := 0
	for _, r := range results {
		sig := Sign(r)
		_, seen := prev[sig]
		_, dup := next[sig]
		isNew := !seen && !dup
		if isNew {
			fresh++
		}
		next[sig] = Sighting{Timestamp: ts, Result: r}
		items = append(items, Detection{Result: r, Signature: sig, SeenAt: ts, New: isNew})
	}

	carried := []Detection{}
	for sig, s := range prev {
		if _, ok := next[sig]; ok {
			continue
		}
		if ts-s.Timestamp >= window {
			continue
		}
		next[sig] = s
		carried = append(carried, Detection{Result: s.Result, Signature: sig, SeenAt: s.Timestamp, Debounced: true})
	}
	slices.SortFunc(carried, func(a, b Detection) int {
		if c := cmp.Compare(b.SeenAt, a.SeenAt); c != 0 {
			return c
		}
		return slices.Compare(a.Signature[:], b.Signature[:])
	})
	return next, append(items, carried...), fresh
}
