package songfilter

import (
	"math/rand/v2"

	"github.com/harumakino16/setlink/internal/store"
)

// Shuffle permutes songs in place with a uniform Fisher–Yates pass.
func Shuffle(songs []store.Song) {
	for i := len(songs) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		songs[i], songs[j] = songs[j], songs[i]
	}
}

// PickRandom returns up to n songs drawn without replacement from the pool,
// clamped to the pool size. The pool itself is left untouched.
func PickRandom(pool []store.Song, n int) []store.Song {
	if n <= 0 {
		return nil
	}
	picked := make([]store.Song, len(pool))
	copy(picked, pool)
	Shuffle(picked)
	if n < len(picked) {
		picked = picked[:n]
	}
	return picked
}
