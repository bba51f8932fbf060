package scoring

import (
	"strings"

	"github.com/bobmcallan/stocksight/internal/models"
)

// industryKeywords maps display-name fragments to industry tags, checked in
// a fixed order so overlapping names classify deterministically.
var industryKeywords = []struct {
	tag      string
	keywords []string
}{
	{"BANKING", []string{"bank", "finance", "financial", "nbfc", "insurance"}},
	{"IT", []string{"infosys", "tech", "software", "infotech", "wipro", "hcl"}},
	{"FMCG", []string{"consumer", "unilever", "nestle", "britannia", "dabur", "fmcg"}},
	{"PHARMA", []string{"pharma", "lab", "healthcare", "drug", "cipla"}},
	{"AUTO", []string{"motor", "auto", "bajaj", "hero", "mahindra"}},
	{"ENERGY", []string{"oil", "gas", "petro", "energy", "power", "coal", "ntpc"}},
}

// ClassifyIndustry tags a record by display-name keywords, falling back to
// GENERAL when nothing matches. Only stocks classify; funds and ETFs have
// no fundamentals to weight.
func ClassifyIndustry(record *models.AssetRecord) string {
	if record == nil || record.Kind != models.AssetKindStock {
		return models.IndustryGeneral
	}

	name := strings.ToLower(record.Name + " " + record.Identifier)
	for _, entry := range industryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.tag
			}
		}
	}
	return models.IndustryGeneral
}
