package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"daily_judge/internal/common"
)

const DaysPerWeek = 7

type Day struct {
	Day      int      `json:"day"`
	Problems []string `json:"problems"`
}

// Days is the ordered list of days of a course. Stored days may be an array
// or an object keyed by the stringified index; both decode into the same
// list, sorted by day number. Days are always encoded as an array.
type Days []Day

func (d *Days) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var days []Day

	switch {
	case len(data) == 0:
	case data[0] == '[':
		if err := json.Unmarshal(data, &days); err != nil {
			return fmt.Errorf("decode course days: %w", err)
		}
	case data[0] == '{':
		var keyed map[string]Day
		if err := json.Unmarshal(data, &keyed); err != nil {
			return fmt.Errorf("decode keyed course days: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ni, errI := strconv.Atoi(keys[i])
			nj, errJ := strconv.Atoi(keys[j])
			if errI == nil && errJ == nil {
				return ni < nj
			}
			if errI == nil || errJ == nil {
				return errI == nil
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			days = append(days, keyed[k])
		}
	}

	for i := range days {
		if days[i].Day == 0 {
			days[i].Day = i + 1
		}
		if days[i].Problems == nil {
			days[i].Problems = []string{}
		}
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	*d = days
	return nil
}

// Assignments maps every problem id to the day number it belongs to.
func (d Days) Assignments() map[string]int {
	assigned := make(map[string]int)
	for _, day := range d {
		for _, pid := range day.Problems {
			if _, ok := assigned[pid]; !ok {
				assigned[pid] = day.Day
			}
		}
	}
	return assigned
}

// Validate rejects a layout where a problem appears more than once.
func (d Days) Validate() error {
	seen := make(map[string]int)
	for _, day := range d {
		for _, pid := range day.Problems {
			if pid == "" {
				return fmt.Errorf("%w: day %d contains an empty problem id", common.ErrValidation, day.Day)
			}
			if other, ok := seen[pid]; ok {
				return fmt.Errorf("%w: problem %q is assigned to day %d and day %d", common.ErrValidation, pid, other, day.Day)
			}
			seen[pid] = day.Day
		}
	}
	return nil
}

// Renumbered returns the days numbered 1..n in their current order.
func (d Days) Renumbered() Days {
	out := make(Days, len(d))
	for i, day := range d {
		problems := append([]string{}, day.Problems...)
		out[i] = Day{Day: i + 1, Problems: problems}
	}
	return out
}

// Unlocked reports whether the day at index i is open to a student. The
// first day is always open; any other day opens once the nearest previous
// day with problems is fully solved.
func (d Days) Unlocked(i int, solved func(problemID string) bool) bool {
	if i <= 0 {
		return true
	}
	for j := i - 1; j >= 0; j-- {
		if len(d[j].Problems) == 0 {
			continue
		}
		for _, pid := range d[j].Problems {
			if !solved(pid) {
				return false
			}
		}
		return true
	}
	return true
}

// WeekOf returns the zero-based week a day number falls in.
func WeekOf(day int) int {
	if day < 1 {
		return 0
	}
	return (day - 1) / DaysPerWeek
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Days        Days      `json:"days"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
