package replenishment

// RiskTier is the three-level stock risk classification.
type RiskTier string

const (
	RiskHealthy RiskTier = "healthy"
	RiskWatch   RiskTier = "watch"
	RiskAtRisk  RiskTier = "at_risk"
)

const (
	healthyRatio = 1.2
	watchRatio   = 0.5
)

// Risk is a classified stock position with display text.
type Risk struct {
	Tier        RiskTier `json:"tier"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// Severity orders tiers from 0 (healthy) to 2 (at risk).
func (t RiskTier) Severity() int {
	switch t {
	case RiskHealthy:
		return 0
	case RiskWatch:
		return 1
	default:
		return 2
	}
}

// ClassifyRisk compares current stock with safety stock:
//
//	current >= 1.2 * safety  Healthy (LOW)
//	current >= 0.5 * safety  Watch   (MED)
//	otherwise                At Risk (HIGH)
//
// Raising current stock never raises the tier. Inside Watch the suggestion
// distinguishes stock above safety stock from stock below it.
func ClassifyRisk(current, safety float64) Risk {
	switch {
	case current >= safety*healthyRatio:
		return Risk{
			Tier:        RiskHealthy,
			Label:       "LOW",
			Description: "Healthy",
			Suggestion:  "Stock is sufficient, maintain current level",
		}
	case current >= safety:
		return Risk{
			Tier:        RiskWatch,
			Label:       "MED",
			Description: "Watch",
			Suggestion:  "Stock is normal, monitor reorder timing",
		}
	case current >= safety*watchRatio:
		return Risk{
			Tier:        RiskWatch,
			Label:       "MED",
			Description: "Watch",
			Suggestion:  "Stock is low, consider reordering soon",
		}
	default:
		return Risk{
			Tier:        RiskAtRisk,
			Label:       "HIGH",
			Description: "At Risk",
			Suggestion:  "Stock is critically low, reorder immediately",
		}
	}
}
