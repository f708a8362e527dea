package award

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column headers accepted by ReadCSV, in English or Chinese.
var (
	tierColumns = []string{"tier", "award", "奖项"}
	nameColumns = []string{"name", "winner", "姓名", "获奖者"}
)

// ReadCSV reads a winner sheet with a header row naming a tier column and
// a name column. tierOf maps a cell to a tier, so sheets may use either
// tier ids or display labels. The result feeds Collect.
func ReadCSV(r io.Reader, tierOf func(string) (Tier, bool)) (map[Tier]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading winner csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("winner csv has no header")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	find := func(names []string) int {
		for _, n := range names {
			if i, ok := cols[n]; ok {
				return i
			}
		}
		return -1
	}
	ti, ni := find(tierColumns), find(nameColumns)
	if ti < 0 || ni < 0 {
		return nil, fmt.Errorf("winner csv needs a tier and a name column, got %q", rows[0])
	}

	lists := map[Tier][]string{}
	for line, row := range rows[1:] {
		if ti >= len(row) || ni >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[ni])
		if name == "" {
			continue
		}
		tier, ok := tierOf(strings.TrimSpace(row[ti]))
		if !ok {
			return nil, fmt.Errorf("winner csv line %d: unknown tier %q", line+2, row[ti])
		}
		lists[tier] = append(lists[tier], name)
	}

	out := make(map[Tier]string, len(lists))
	for t, names := range lists {
		out[t] = strings.Join(names, "\n")
	}
	return out, nil
}
