package melody

import "math"

// MaxScore is the score of a perfect performance
const MaxScore = 1000

// Score compares the player's notes to the reference position by position.
// Only the first min(len(player), len(reference)) positions count and a
// mismatch never re-synchronizes later notes. An empty performance scores zero.
func Score(player, reference []string) (accuracy float64, score int) {
	n := min(len(player), len(reference))
	if len(player) == 0 || n == 0 {
		return 0, 0
	}

	correct := 0
	for i := 0; i < n; i++ {
		if player[i] == reference[i] {
			correct++
		}
	}

	accuracy = float64(correct) / float64(n)
	return accuracy, int(math.RoundToEven(accuracy * MaxScore))
}
