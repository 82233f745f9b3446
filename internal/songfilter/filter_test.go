package songfilter

import (
	"testing"

	"github.com/harumakino16/setlink/internal/store"
)

func catalog() []store.Song {
	return []store.Song{
		{ID: 1, Title: "残酷な天使のテーゼ", Furigana: "ざんこくなてんしのてーぜ", Artist: "高橋洋子", Genre: "Anime", Tags: []string{"アニソン", "定番"}, SingingCount: 12, SkillLevel: 3},
		{ID: 2, Title: "Pretender", Furigana: "プリテンダー", Artist: "Official髭男dism", Genre: "J-Pop", Tags: []string{"バラード"}, SingingCount: 5, SkillLevel: 4, Memo: "key -2"},
		{ID: 3, Title: "Bohemian Rhapsody", Artist: "Queen", Genre: "Rock", Tags: []string{"洋楽", "定番"}, SingingCount: 0, SkillLevel: 5, Note: "long"},
	}
}

func ids(songs []store.Song) []int64 {
	out := make([]int64, 0, len(songs))
	for _, s := range songs {
		out = append(out, s.ID)
	}
	return out
}

func assertIDs(t *testing.T, got []store.Song, want ...int64) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, gotIDs)
		}
	}
}

func TestApplyEmptyCriteriaReturnsEverything(t *testing.T) {
	songs := catalog()
	got := Apply(songs, Criteria{})
	assertIDs(t, got, 1, 2, 3)
}

func TestApplyIsAlwaysSubset(t *testing.T) {
	songs := catalog()
	criteria := []Criteria{
		{FreeKeyword: "queen"},
		{Tag: "定番"},
		{MaxSung: 4, MaxSungOption: OptionAtMost},
		{ExcludedGenres: "Rock,Anime"},
		{Artist: "nobody"},
	}
	for _, c := range criteria {
		got := Apply(songs, c)
		if len(got) > len(songs) {
			t.Fatalf("result larger than input for %+v", c)
		}
		for _, s := range got {
			found := false
			for _, orig := range songs {
				if orig.ID == s.ID {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("song %d invented by filter %+v", s.ID, c)
			}
		}
	}
}

func TestKeywordMatchesAcrossFields(t *testing.T) {
	songs := catalog()

	tests := []struct {
		name    string
		keyword string
		want    []int64
	}{
		{"title substring", "rhapsody", []int64{3}},
		{"artist case-insensitive", "QUEEN", []int64{3}},
		{"tag", "洋楽", []int64{3}},
		{"genre", "j-pop", []int64{2}},
		{"memo", "key -2", []int64{2}},
		{"note", "long", []int64{3}},
		{"skill level stringified", "5", []int64{3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertIDs(t, Apply(songs, Criteria{FreeKeyword: tc.keyword}), tc.want...)
		})
	}
}

func TestKeywordKanaInsensitive(t *testing.T) {
	songs := catalog()

	// Katakana keyword against a hiragana furigana.
	assertIDs(t, Apply(songs, Criteria{FreeKeyword: "ザンコク"}), 1)
	// Hiragana keyword against a katakana furigana.
	assertIDs(t, Apply(songs, Criteria{FreeKeyword: "ぷりてんだー"}), 2)
	// Half-width katakana folds to the same reading.
	assertIDs(t, Apply(songs, Criteria{FreeKeyword: "ﾌﾟﾘﾃﾝﾀﾞｰ"}), 2)
}

func TestNormalizeKanaComposesVoicedMarks(t *testing.T) {
	// Widening half-width ﾀﾞ yields タ plus a combining U+3099; the fold
	// must compose it so it equals the precomposed full-width form.
	tests := []struct {
		in   string
		want string
	}{
		{"ﾀﾞ", "だ"},
		{"ﾌﾟ", "ぷ"},
		{"ﾌﾟﾘﾃﾝﾀﾞｰ", "ぷりてんだー"},
		{"プリテンダー", "ぷりてんだー"},
	}
	for _, tc := range tests {
		if got := normalizeKana(tc.in); got != tc.want {
			t.Errorf("normalizeKana(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSingingCountThresholds(t *testing.T) {
	songs := []store.Song{
		{ID: 1, Title: "five", SingingCount: 5},
		{ID: 2, Title: "six", SingingCount: 6},
	}

	// 以上 5 keeps a song sung exactly 5 times.
	assertIDs(t, Apply(songs, Criteria{MaxSung: 5, MaxSungOption: OptionAtLeast}), 1, 2)
	// 以下 5 drops a song sung 6 times.
	assertIDs(t, Apply(songs, Criteria{MaxSung: 5, MaxSungOption: OptionAtMost}), 1)
	// Zero threshold is not applied at all.
	assertIDs(t, Apply(songs, Criteria{MaxSung: 0, MaxSungOption: OptionAtMost}), 1, 2)
}

func TestSkillLevelThresholds(t *testing.T) {
	songs := catalog()
	assertIDs(t, Apply(songs, Criteria{SkillLevel: 4, SkillLevelOption: OptionAtLeast}), 2, 3)
	assertIDs(t, Apply(songs, Criteria{SkillLevel: 3, SkillLevelOption: OptionAtMost}), 1)
}

func TestTagCriterionRequiresAllTags(t *testing.T) {
	songs := catalog()

	assertIDs(t, Apply(songs, Criteria{Tag: "定番"}), 1, 3)
	// Comma-separated tags must all be present on the song.
	assertIDs(t, Apply(songs, Criteria{Tag: "アニソン,定番"}), 1)
	assertIDs(t, Apply(songs, Criteria{Tag: "アニソン,洋楽"}))
	// The Japanese comma separates too.
	assertIDs(t, Apply(songs, Criteria{Tag: "アニソン、定番"}), 1)
}

func TestExclusionsWinOverMatches(t *testing.T) {
	songs := []store.Song{
		{ID: 1, Title: "a", Genre: "Rock"},
		{ID: 2, Title: "b", Genre: "Pop"},
	}
	assertIDs(t, Apply(songs, Criteria{ExcludedGenres: "Rock"}), 2)

	// A song matching every other criterion is still removed.
	assertIDs(t, Apply(songs, Criteria{FreeKeyword: "a", ExcludedGenres: "rock"}))

	tagged := catalog()
	assertIDs(t, Apply(tagged, Criteria{ExcludedTags: "定番"}), 2)
}

func TestCriteriaCompose(t *testing.T) {
	songs := catalog()
	got := Apply(songs, Criteria{Genre: "anime", MaxSung: 20, MaxSungOption: OptionAtMost, Tag: "アニソン"})
	assertIDs(t, got, 1)
}

func TestSortTitleRoutesThroughFurigana(t *testing.T) {
	songs := []store.Song{
		{ID: 1, Title: "林檎", Furigana: "りんご"},
		{ID: 2, Title: "あめ"},
		{ID: 3, Title: "カラス", Furigana: "からす"},
	}
	Sort(songs, SortByTitle, false)
	assertIDs(t, songs, 2, 3, 1)

	Sort(songs, SortByTitle, true)
	assertIDs(t, songs, 1, 3, 2)
}

func TestSortBySingingCountDesc(t *testing.T) {
	songs := catalog()
	Sort(songs, SortBySingingCount, true)
	assertIDs(t, songs, 1, 2, 3)
}

func TestSortUnknownKeyLeavesOrder(t *testing.T) {
	songs := catalog()
	Sort(songs, SortKey("bogus"), false)
	assertIDs(t, songs, 1, 2, 3)
}

func TestPickRandomClampsToPool(t *testing.T) {
	songs := catalog()

	picked := PickRandom(songs, 10)
	if len(picked) != len(songs) {
		t.Fatalf("expected pick clamped to %d, got %d", len(songs), len(picked))
	}

	picked = PickRandom(songs, 2)
	if len(picked) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(picked))
	}
	seen := map[int64]bool{}
	for _, s := range picked {
		if seen[s.ID] {
			t.Fatalf("song %d picked twice", s.ID)
		}
		seen[s.ID] = true
	}

	if got := PickRandom(songs, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}

func TestShuffleKeepsMembership(t *testing.T) {
	songs := catalog()
	Shuffle(songs)
	if len(songs) != 3 {
		t.Fatalf("expected 3 songs after shuffle, got %d", len(songs))
	}
	seen := map[int64]bool{}
	for _, s := range songs {
		seen[s.ID] = true
	}
	for _, id := range []int64{1, 2, 3} {
		if !seen[id] {
			t.Fatalf("song %d lost in shuffle", id)
		}
	}
}
