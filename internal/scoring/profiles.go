package scoring

import (
	"strings"

	"github.com/bobmcallan/stocksight/internal/models"
)

// profiles is the static industry table. Required lists name the metrics
// an industry is expected to report; absent or zero values draw the
// missing-data penalty. Weights scale the four score components, default 1.0.
var profiles = map[string]*models.IndustryProfile{
	models.IndustryGeneral: {
		Name:     models.IndustryGeneral,
		Required: []string{"pe", "roe"},
	},
	"BANKING": {
		Name:     "BANKING",
		Required: []string{"roe"},
		Weights:  map[string]float64{"moat": 1.1, "risk": 0.9},
	},
	"IT": {
		Name:     "IT",
		Required: []string{"pe", "roe", "opm"},
		Weights:  map[string]float64{"management": 1.1},
	},
	"FMCG": {
		Name:     "FMCG",
		Required: []string{"pe", "roe", "opm"},
		Weights:  map[string]float64{"moat": 1.2, "risk": 1.1},
	},
	"PHARMA": {
		Name:     "PHARMA",
		Required: []string{"pe", "roe", "opm"},
	},
	"AUTO": {
		Name:     "AUTO",
		Required: []string{"pe", "roe", "growth"},
	},
	"ENERGY": {
		Name:     "ENERGY",
		Required: []string{"pe", "roce"},
		Weights:  map[string]float64{"business": 1.1, "management": 0.9},
	},
}

// ProfileFor returns the industry profile for a tag, defaulting to GENERAL.
func ProfileFor(industry string) *models.IndustryProfile {
	if p, ok := profiles[strings.ToUpper(industry)]; ok {
		return p
	}
	return profiles[models.IndustryGeneral]
}
