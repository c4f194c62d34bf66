package engine

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// BuildPriorityList draws a single uniform permutation of all eligible
// tickets and assigns queue numbers 1..N by shuffled position. Tickets
// from the same participant land wherever the shuffle puts them; there
// is no clustering or separation guarantee.
func BuildPriorityList(tickets []TicketRef, seed int64) []PriorityEntry {
	shuffled := make([]TicketRef, len(tickets))
	copy(shuffled, tickets)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	order := make([]PriorityEntry, len(shuffled))
	for i, t := range shuffled {
		order[i] = PriorityEntry{
			QueueNumber:   i + 1,
			TicketID:      t.ID,
			ParticipantID: t.ParticipantID,
		}
	}
	return order
}

// ShuffleSeed derives the permutation seed from the room id and the
// shuffle instant, so a replay with the same inputs reproduces the
// same order. Fairness, not unpredictability, is the goal here.
func ShuffleSeed(roomID string, at time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(roomID))
	return int64(h.Sum64()) ^ at.UnixNano()
}
