package imports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harumakino16/setlink/internal/store"
)

// csvHeader is the fixed header row the import accepts.
var csvHeader = []string{
	"title", "furigana", "artist", "genre",
	"tag1", "tag2", "tag3", "tag4", "tag5",
	"youtubeUrl", "singingCount", "skillLevel", "memo",
}

// ParseSongsCSV reads the fixed-format catalog CSV into songs. Parsing is
// all-or-nothing: any malformed row fails the whole import before a single
// write happens.
func ParseSongsCSV(r io.Reader) ([]store.Song, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var songs []store.Song
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		song, err := songFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		songs = append(songs, song)
	}
	return songs, nil
}

func checkHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("expected %d header columns, got %d", len(csvHeader), len(header))
	}
	for i, want := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("unexpected header column %d: got %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func songFromRecord(record []string) (store.Song, error) {
	if len(record) != len(csvHeader) {
		return store.Song{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	title := strings.TrimSpace(record[0])
	if title == "" {
		return store.Song{}, fmt.Errorf("song title is required")
	}

	var tags []string
	for _, raw := range record[4:9] {
		if tag := strings.TrimSpace(raw); tag != "" {
			tags = append(tags, tag)
		}
	}

	singingCount, err := parseCount(record[10])
	if err != nil {
		return store.Song{}, fmt.Errorf("singing count: %w", err)
	}
	skillLevel, err := parseCount(record[11])
	if err != nil {
		return store.Song{}, fmt.Errorf("skill level: %w", err)
	}

	return store.Song{
		Title:        title,
		Furigana:     strings.TrimSpace(record[1]),
		Artist:       strings.TrimSpace(record[2]),
		Genre:        strings.TrimSpace(record[3]),
		Tags:         tags,
		YouTubeURL:   strings.TrimSpace(record[9]),
		SingingCount: singingCount,
		SkillLevel:   skillLevel,
		Memo:         strings.TrimSpace(record[12]),
	}, nil
}

// parseCount treats an empty cell as zero and rejects negatives.
func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative: %d", n)
	}
	return n, nil
}
