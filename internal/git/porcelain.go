package git

import (
	"strings"

	"github.com/chmouel/lazychangelist/internal/models"
)

// ParseStatus parses `git status --porcelain=v2 -z` output.
//
// A path changed in both the index and the working tree is reported once,
// as staged with the index change and flagged Partial.
func ParseStatus(raw string) []models.StatusEntry {
	records := strings.Split(raw, "\x00")
	entries := make([]models.StatusEntry, 0, len(records))

	for i := 0; i < len(records); i++ {
		record := records[i]
		if record == "" {
			continue
		}

		switch record[0] {
		case '1': // 1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>
			fields := strings.SplitN(record, " ", 9)
			if len(fields) < 9 || len(fields[1]) != 2 {
				continue
			}
			entries = append(entries, entryFromXY(fields[1], fields[8]))
		case '2': // 2 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <X><score> <path>\0<origPath>
			fields := strings.SplitN(record, " ", 10)
			if len(fields) < 10 || len(fields[1]) != 2 {
				continue
			}
			entry := entryFromXY(fields[1], fields[9])
			if i+1 < len(records) {
				entry.OrigPath = records[i+1]
				i++
			}
			entries = append(entries, entry)
		case 'u': // u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>
			fields := strings.SplitN(record, " ", 11)
			if len(fields) < 11 {
				continue
			}
			entries = append(entries, models.StatusEntry{Path: fields[10], Code: models.Conflicted})
		case '?':
			if len(record) > 2 {
				entries = append(entries, models.StatusEntry{Path: record[2:], Code: models.Untracked})
			}
		case '!':
			if len(record) > 2 {
				entries = append(entries, models.StatusEntry{Path: record[2:], Code: models.Ignored})
			}
		}
	}

	return entries
}

func entryFromXY(xy, path string) models.StatusEntry {
	x, y := xy[0], xy[1]
	if x != '.' && x != ' ' {
		return models.StatusEntry{
			Path:    path,
			Code:    models.StatusCodeFromLetter(x),
			Staged:  true,
			Partial: y != '.' && y != ' ',
		}
	}
	return models.StatusEntry{Path: path, Code: models.StatusCodeFromLetter(y)}
}
