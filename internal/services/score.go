package services

import "strings"

// Profile is the awareness category assigned to a questionnaire total.
// The value is the label persisted with each response record.
type Profile string

const (
	ProfileOblivious  Profile = "Alheio à Problemática"
	ProfileCautious   Profile = "Consciente mas Cauteloso"
	ProfileActive     Profile = "Atuante na Causa"
	ProfileOutOfRange Profile = "Fora da faixa"
)

// DefaultColor is used for labels outside the four known profiles.
const DefaultColor = "#999999"

type profileInfo struct {
	key         string
	min, max    int
	color       string
	description string
}

// canonical order; also the tie-break order for statistics
var profileOrder = []Profile{ProfileOblivious, ProfileCautious, ProfileActive, ProfileOutOfRange}

var profiles = map[Profile]profileInfo{
	ProfileOblivious: {
		key: "oblivious", min: 10, max: 16, color: "#FF6B6B",
		description: "Pouca exposição ou consciência sobre o bullying. Recomendamos buscar mais informação sobre o tema e sobre como ele afeta as pessoas ao seu redor.",
	},
	ProfileCautious: {
		key: "cautious", min: 17, max: 23, color: "#4ECDC4",
		description: "Você reconhece o problema, mas ainda hesita em agir. Pequenas atitudes, como conversar com a vítima ou procurar ajuda, já fazem diferença.",
	},
	ProfileActive: {
		key: "active", min: 24, max: 30, color: "#45B7D1",
		description: "Postura proativa, com alta empatia e engajamento contra o bullying. Continue inspirando quem está à sua volta.",
	},
	ProfileOutOfRange: {
		key: "out_of_range", color: "#96CEB4",
		description: "A pontuação ficou fora das faixas esperadas. Revise suas respostas e tente novamente.",
	},
}

// ScoreResult is the outcome of scoring one questionnaire.
type ScoreResult struct {
	Total       int     `json:"total"`
	Profile     Profile `json:"profile"`
	Description string  `json:"description"`
}

// Score sums the selected option scores and maps the total to a profile.
// It never fails: totals outside every range land in ProfileOutOfRange.
func Score(responses []int) ScoreResult {
	total := 0
	for _, v := range responses {
		total += v
	}
	p := ProfileFor(total)
	return ScoreResult{Total: total, Profile: p, Description: p.Description()}
}

// ProfileFor returns the profile whose inclusive range contains total.
func ProfileFor(total int) Profile {
	for _, p := range profileOrder[:3] {
		info := profiles[p]
		if total >= info.min && total <= info.max {
			return p
		}
	}
	return ProfileOutOfRange
}

// Profiles returns the four profiles in canonical order.
func Profiles() []Profile {
	out := make([]Profile, len(profileOrder))
	copy(out, profileOrder)
	return out
}

// ParseProfile matches a persisted label (case and surrounding space insensitive)
// or an ASCII key such as "active".
func ParseProfile(s string) (Profile, bool) {
	s = strings.TrimSpace(s)
	for _, p := range profileOrder {
		if strings.EqualFold(string(p), s) || strings.EqualFold(profiles[p].key, s) {
			return p, true
		}
	}
	return "", false
}

func (p Profile) Known() bool {
	_, ok := profiles[p]
	return ok
}

func (p Profile) Key() string {
	if info, ok := profiles[p]; ok {
		return info.key
	}
	return ""
}

func (p Profile) Description() string {
	if info, ok := profiles[p]; ok {
		return info.description
	}
	return ""
}

// Color returns the chart colour for p, DefaultColor for unknown labels.
func (p Profile) Color() string {
	if info, ok := profiles[p]; ok {
		return info.color
	}
	return DefaultColor
}

// Range returns the inclusive total range of p. ok is false for the catch-all
// profile and unknown labels.
func (p Profile) Range() (lo, hi int, ok bool) {
	info, found := profiles[p]
	if !found || p == ProfileOutOfRange {
		return 0, 0, false
	}
	return info.min, info.max, true
}

// profileRank orders canonical profiles first; unknown labels share the last rank.
func profileRank(p Profile) int {
	for i, q := range profileOrder {
		if p == q {
			return i
		}
	}
	return len(profileOrder)
}

// ScoreRange returns the lowest and highest totals reachable with the catalog.
func ScoreRange(questions []Question) (lo, hi int) {
	for _, q := range questions {
		if len(q.Options) == 0 {
			continue
		}
		qmin, qmax := q.Options[0].Score, q.Options[0].Score
		for _, o := range q.Options[1:] {
			if o.Score < qmin {
				qmin = o.Score
			}
			if o.Score > qmax {
				qmax = o.Score
			}
		}
		lo += qmin
		hi += qmax
	}
	return lo, hi
}
