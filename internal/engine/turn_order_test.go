package engine

import "testing"

func TestRoundOrder_Snakes(t *testing.T) {
	s := draftingState(4, 4)

	cases := []struct {
		round int
		want  []int
	}{
		{1, []int{1, 2, 3, 4}},
		{2, []int{4, 3, 2, 1}},
		{3, []int{1, 2, 3, 4}},
		{4, []int{4, 3, 2, 1}},
	}

	for _, tc := range cases {
		got := RoundOrder(s, tc.round)
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("round %d: want %v, got %v", tc.round, tc.want, got)
			}
		}
	}
}

func TestCurrentEntry_Lookup(t *testing.T) {
	cases := []struct {
		name      string
		round     int
		pos       int
		wantQueue int
		wantOK    bool
	}{
		{"round 1 start", 1, 0, 1, true},
		{"round 1 last", 1, 2, 3, true},
		{"round 2 start revisits last", 2, 0, 3, true},
		{"round 2 end revisits first", 2, 2, 1, true},
		{"round 3 flips back", 3, 0, 1, true},
		{"exhausted pointer", 1, 3, 0, false},
		{"not yet drafting", 0, 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := draftingState(3, 3)
			s.Round = tc.round
			s.Pos = tc.pos

			entry, ok := CurrentEntry(s)
			if ok != tc.wantOK {
				t.Fatalf("ok: want %v, got %v", tc.wantOK, ok)
			}
			if ok && entry.QueueNumber != tc.wantQueue {
				t.Fatalf("queue: want %d, got %d", tc.wantQueue, entry.QueueNumber)
			}
		})
	}
}
