package movie

import "strconv"

// DefaultUpcomingCeiling bounds how many placeholder slots a payload may
// produce through its episode_total hint.
const DefaultUpcomingCeiling = 500

// Slot is one entry of an episode grid. Upcoming slots have no episode
// behind them yet and render disabled.
type Slot struct {
	Index    int
	Name     string
	Upcoming bool
	Episode  Episode
}

// EpisodeSlots lists the available episodes and pads the grid with upcoming
// placeholders up to the total parsed from hint. Padding only happens when
// that total exceeds the available count and stays below ceiling.
func EpisodeSlots(episodes []Episode, hint string, ceiling int) []Slot {
	slots := make([]Slot, 0, len(episodes))
	for i, ep := range episodes {
		slots = append(slots, Slot{Index: i, Name: ep.Name, Episode: ep})
	}

	if ceiling <= 0 {
		ceiling = DefaultUpcomingCeiling
	}
	total := ParseTotal(hint)
	if total <= len(episodes) || total >= ceiling {
		return slots
	}

	for n := len(episodes) + 1; n <= total; n++ {
		slots = append(slots, Slot{
			Index:    n - 1,
			Name:     "Tập " + strconv.Itoa(n),
			Upcoming: true,
		})
	}
	return slots
}

// CountUpcoming returns how many slots are placeholders.
func CountUpcoming(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if s.Upcoming {
			n++
		}
	}
	return n
}
