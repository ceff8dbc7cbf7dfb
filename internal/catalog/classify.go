package catalog

import "strings"

// SpecialKind tags a subcategory whose selection triggers a non-catalog
// action instead of an item listing.
type SpecialKind int

const (
	SpecialNone SpecialKind = iota
	SpecialSimulation
	SpecialBroker
	SpecialProcessLookup
	SpecialRental
	SpecialFAQ
	SpecialHuman
)

// String returns the kind's stable identifier (also used as a form type tag).
func (k SpecialKind) String() string {
	switch k {
	case SpecialSimulation:
		return "simulation"
	case SpecialBroker:
		return "broker"
	case SpecialProcessLookup:
		return "process-lookup"
	case SpecialRental:
		return "rental"
	case SpecialFAQ:
		return "faq"
	case SpecialHuman:
		return "human"
	default:
		return "none"
	}
}

// Classify maps a subcategory name to its special kind via substring
// heuristics on the normalized name. This is deliberately the only place
// that inspects catalog naming conventions; everything downstream switches
// on the returned kind.
func Classify(name string) SpecialKind {
	n := Normalize(name)
	switch {
	case strings.Contains(n, "simula"):
		return SpecialSimulation
	case strings.Contains(n, "corretor") || strings.Contains(n, "creci"):
		return SpecialBroker
	case strings.Contains(n, "processo") || strings.Contains(n, "acompanhar"):
		return SpecialProcessLookup
	case strings.Contains(n, "anunc") || strings.Contains(n, "vender meu"):
		return SpecialRental
	case strings.Contains(n, "pergunta") || strings.Contains(n, "faq") || strings.Contains(n, "duvida"):
		return SpecialFAQ
	case strings.Contains(n, "atendente") || strings.Contains(n, "humano") || strings.Contains(n, "falar com"):
		return SpecialHuman
	default:
		return SpecialNone
	}
}
