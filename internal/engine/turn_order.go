package engine

// Snake ordering: odd rounds walk Order front to back, even rounds walk
// it back to front. Pos counts turns taken within the current round, so
// the entry visited at Pos p of round r is:
//
//	r odd:  Order[p]
//	r even: Order[N-1-p]
func visitIndex(round, pos, n int) int {
	if round%2 == 1 {
		return pos
	}
	return n - 1 - pos
}

// CurrentEntry returns the priority entry whose turn it is. advance
// keeps the pointer off entries whose ticket already picked, so during
// Drafting the entry returned here is always still eligible. ok is
// false outside Drafting or when the pointer is exhausted.
func CurrentEntry(s State) (PriorityEntry, bool) {
	n := len(s.Order)
	if s.Round < 1 || s.Pos < 0 || s.Pos >= n {
		return PriorityEntry{}, false
	}
	return s.Order[visitIndex(s.Round, s.Pos, n)], true
}

// RoundOrder returns the queue numbers in the order round r visits them.
func RoundOrder(s State, round int) []int {
	n := len(s.Order)
	out := make([]int, 0, n)
	for pos := 0; pos < n; pos++ {
		out = append(out, s.Order[visitIndex(round, pos, n)].QueueNumber)
	}
	return out
}
