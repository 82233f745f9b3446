package songfilter

import (
	"strconv"
	"strings"

	"github.com/harumakino16/setlink/internal/store"
)

// Apply returns the subset of songs matching every non-empty criterion.
// The input slice is never mutated and no song is invented; with an empty
// Criteria the result has the same membership and order as the input.
func Apply(songs []store.Song, c Criteria) []store.Song {
	out := make([]store.Song, 0, len(songs))
	for _, song := range songs {
		if matches(song, c) {
			out = append(out, song)
		}
	}
	return out
}

func matches(song store.Song, c Criteria) bool {
	if excluded(song, c) {
		return false
	}
	if kw := strings.TrimSpace(c.FreeKeyword); kw != "" && !matchesKeyword(song, kw) {
		return false
	}
	if c.MaxSung > 0 && !meetsThreshold(song.SingingCount, c.MaxSung, c.MaxSungOption) {
		return false
	}
	if c.SkillLevel > 0 && !meetsThreshold(song.SkillLevel, c.SkillLevel, c.SkillLevelOption) {
		return false
	}
	if c.Tag != "" && !hasAllTags(song.Tags, splitList(c.Tag)) {
		return false
	}
	if c.Artist != "" && !containsFold(song.Artist, c.Artist) {
		return false
	}
	if c.Genre != "" && !containsFold(song.Genre, c.Genre) {
		return false
	}
	if c.Memo != "" && !containsFold(song.Memo, c.Memo) {
		return false
	}
	if c.Note != "" && !containsFold(song.Note, c.Note) {
		return false
	}
	return true
}

// matchesKeyword checks the free keyword against every searchable field,
// plus a kana-folded comparison against the furigana reading so a hiragana
// keyword finds a katakana reading and vice versa.
func matchesKeyword(song store.Song, keyword string) bool {
	fields := []string{
		song.Title,
		song.Artist,
		song.Genre,
		strconv.Itoa(song.SkillLevel),
		song.Memo,
		song.Note,
	}
	for _, f := range fields {
		if containsFold(f, keyword) {
			return true
		}
	}
	for _, tag := range song.Tags {
		if containsFold(tag, keyword) {
			return true
		}
	}
	if song.Furigana != "" &&
		strings.Contains(normalizeKana(song.Furigana), normalizeKana(keyword)) {
		return true
	}
	return false
}

func meetsThreshold(value, limit int, option string) bool {
	if option == OptionAtLeast {
		return value >= limit
	}
	return value <= limit
}

// hasAllTags requires every wanted tag to be present, case-insensitive exact.
// The comma-separated input promises multi-tag filtering, so all parts must
// match rather than the joined string.
func hasAllTags(tags []string, wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, tag := range tags {
			if strings.EqualFold(strings.TrimSpace(tag), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func excluded(song store.Song, c Criteria) bool {
	for _, ex := range splitList(c.ExcludedTags) {
		for _, tag := range song.Tags {
			if strings.EqualFold(strings.TrimSpace(tag), ex) {
				return true
			}
		}
	}
	for _, ex := range splitList(c.ExcludedGenres) {
		if strings.EqualFold(strings.TrimSpace(song.Genre), ex) {
			return true
		}
	}
	return false
}

// splitList splits a comma-separated criterion, accepting the Japanese comma
// as well, and drops empty parts.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '、'
	})
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
