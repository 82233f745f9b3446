package songfilter

import (
	"sort"
	"strings"

	"github.com/harumakino16/setlink/internal/store"
)

// SortKey names a sortable song column.
type SortKey string

const (
	SortByTitle        SortKey = "title"
	SortByArtist       SortKey = "artist"
	SortByGenre        SortKey = "genre"
	SortBySingingCount SortKey = "singingCount"
	SortBySkillLevel   SortKey = "skillLevel"
	SortByCreatedAt    SortKey = "createdAt"
)

// Sort orders songs in place by the given key. Title sorting routes through
// the furigana reading when one is present, so kanji titles collate by
// pronunciation. The sort is stable; unknown keys leave the order unchanged.
func Sort(songs []store.Song, key SortKey, desc bool) {
	var less func(a, b store.Song) bool

	switch key {
	case SortByTitle:
		less = func(a, b store.Song) bool {
			return strings.Compare(titleSortValue(a), titleSortValue(b)) < 0
		}
	case SortByArtist:
		less = func(a, b store.Song) bool {
			return strings.Compare(strings.ToLower(a.Artist), strings.ToLower(b.Artist)) < 0
		}
	case SortByGenre:
		less = func(a, b store.Song) bool {
			return strings.Compare(strings.ToLower(a.Genre), strings.ToLower(b.Genre)) < 0
		}
	case SortBySingingCount:
		less = func(a, b store.Song) bool { return a.SingingCount < b.SingingCount }
	case SortBySkillLevel:
		less = func(a, b store.Song) bool { return a.SkillLevel < b.SkillLevel }
	case SortByCreatedAt:
		less = func(a, b store.Song) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}

	sort.SliceStable(songs, func(i, j int) bool {
		if desc {
			return less(songs[j], songs[i])
		}
		return less(songs[i], songs[j])
	})
}

func titleSortValue(song store.Song) string {
	if song.Furigana != "" {
		return normalizeKana(song.Furigana)
	}
	return strings.ToLower(song.Title)
}
