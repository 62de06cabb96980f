package brackets

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/song-bracket/models"
)

// ParseMatchID разбирает id вида "r3-m12".
func ParseMatchID(id string) (round, index int, ok bool) {
	rest, found := strings.CutPrefix(id, "r")
	if !found {
		return 0, 0, false
	}
	roundPart, indexPart, found := strings.Cut(rest, "-m")
	if !found {
		return 0, 0, false
	}
	round, err := strconv.Atoi(roundPart)
	if err != nil || round <= 0 {
		return 0, 0, false
	}
	index, err = strconv.Atoi(indexPart)
	if err != nil || index <= 0 {
		return 0, 0, false
	}
	return round, index, true
}

// SortMatches orders matches by round, then by the numeric index inside the id,
// so r1-m10 comes after r1-m9. Ids that do not parse fall back to string order.
func SortMatches(matches []*models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		_, ai, aok := ParseMatchID(a.ID)
		_, bi, bok := ParseMatchID(b.ID)
		if aok && bok {
			return ai < bi
		}
		return a.ID < b.ID
	})
}

// RoundGroup - матчи одного раунда в порядке отображения.
type RoundGroup struct {
	Round   int             `json:"round"`
	Matches []*models.Match `json:"matches"`
}

func GroupByRound(matches []*models.Match) []RoundGroup {
	sorted := make([]*models.Match, len(matches))
	copy(sorted, matches)
	SortMatches(sorted)

	groups := make([]RoundGroup, 0)
	for _, m := range sorted {
		if len(groups) == 0 || groups[len(groups)-1].Round != m.Round {
			groups = append(groups, RoundGroup{Round: m.Round})
		}
		last := &groups[len(groups)-1]
		last.Matches = append(last.Matches, m)
	}
	return groups
}
