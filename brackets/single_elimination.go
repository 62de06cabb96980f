package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/Dosada05/song-bracket/models"
)

var (
	ErrInvalidBracketSize = errors.New("bracket size must be a power of two and at least 2")
	ErrNotEnoughSongs     = errors.New("not enough songs for the requested bracket size")
)

type node struct {
	match *models.Match
}

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket строит полное дерево матчей сверху вниз, начиная с финала.
// Порядок обхода (по раундам, слева направо) задаёт номера r{R}-m{I},
// на которые опирается сортировка при отображении сетки.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error) {
	size := params.Size
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	if len(params.Songs) < size {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughSongs, size, len(params.Songs))
	}

	rounds := RoundsForSize(size)
	bracketID := params.Scope.BracketID

	final := newMatch(bracketID, rounds, 1, nil, nil)
	allMatches := make([]*models.Match, 0, size-1)
	allMatches = append(allMatches, final)

	currentRound := []*node{{match: final}}
	for r := rounds; r > 1; r-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nextRound := make([]*node, 0, len(currentRound)*2)
		for _, parent := range currentRound {
			parentID := parent.match.ID
			feed1 := newMatch(bracketID, r-1, len(nextRound)+1, &parentID, slotPtr(models.SlotSong1))
			feed2 := newMatch(bracketID, r-1, len(nextRound)+2, &parentID, slotPtr(models.SlotSong2))
			nextRound = append(nextRound, &node{match: feed1}, &node{match: feed2})
			allMatches = append(allMatches, feed1, feed2)
		}
		currentRound = nextRound
	}

	// currentRound теперь первый раунд: size/2 матчей, песни парами по порядку.
	for i, n := range currentRound {
		s1 := params.Songs[i*2]
		s2 := params.Songs[i*2+1]
		n.match.FillSlot(models.SlotSong1, s1.ID, s1.Title)
		n.match.FillSlot(models.SlotSong2, s2.ID, s2.Title)
	}

	return allMatches, nil
}

// ValidateSize rejects sizes that are not a power of two of at least 2.
func ValidateSize(size int) error {
	if size < 2 || size&(size-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBracketSize, size)
	}
	return nil
}

// RoundsForSize returns log2(size). Size must already be valid.
func RoundsForSize(size int) int {
	return bits.TrailingZeros(uint(size))
}

func MatchID(round, index int) string {
	return fmt.Sprintf("r%d-m%d", round, index)
}

func newMatch(bracketID string, round, index int, nextMatchID *string, slot *models.MatchSlot) *models.Match {
	return &models.Match{
		ID:            MatchID(round, index),
		BracketID:     bracketID,
		Round:         round,
		Song1Title:    models.TBDTitle,
		Song2Title:    models.TBDTitle,
		NextMatchID:   nextMatchID,
		NextMatchSlot: slot,
		Status:        models.MatchStatusLocked,
	}
}

func slotPtr(s models.MatchSlot) *models.MatchSlot {
	return &s
}
