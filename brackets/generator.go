package brackets

import (
	"context"

	"github.com/Dosada05/song-bracket/models"
)

// GenerateBracketParams - входные данные генератора.
// Songs уже отфильтрованы (без удалённых) и отсортированы по Order.
type GenerateBracketParams struct {
	Scope models.BracketScope
	Songs []*models.Song
	Size  int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error)

	GetName() string
}
