package services

import "context"

// Catalog is the questionnaire as served to respondents.
type Catalog struct {
	Questions []Question    `json:"questions"`
	MinTotal  int           `json:"min_total"`
	MaxTotal  int           `json:"max_total"`
	Profiles  []ProfileBand `json:"profiles"`
}

// ProfileBand is the inclusive total range that maps to a profile.
type ProfileBand struct {
	Profile  Profile `json:"profile"`
	Key      string  `json:"key"`
	MinTotal int     `json:"min_total"`
	MaxTotal int     `json:"max_total"`
	Color    string  `json:"color"`
}

// ProfileBands lists the ranged profiles in canonical order; the catch-all
// profile has no band.
func ProfileBands() []ProfileBand {
	out := make([]ProfileBand, 0, len(profileOrder))
	for _, p := range Profiles() {
		lo, hi, ok := p.Range()
		if !ok {
			continue
		}
		out = append(out, ProfileBand{Profile: p, Key: p.Key(), MinTotal: lo, MaxTotal: hi, Color: p.Color()})
	}
	return out
}

type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) Catalog(ctx context.Context) (*Catalog, error) {
	qs, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	lo, hi := ScoreRange(qs)
	return &Catalog{Questions: qs, MinTotal: lo, MaxTotal: hi, Profiles: ProfileBands()}, nil
}
