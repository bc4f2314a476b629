package population

// Summary aggregates a population for display.
type Summary struct {
	Total                 int              `json:"total"`
	ByCategory            map[Category]int `json:"by_category"`
	BySubType             map[SubType]int  `json:"by_sub_type"`
	MeanOpinion           float64          `json:"mean_opinion"`
	MeanCharisme          float64          `json:"mean_charisme"`
	MeanPersonalParameter float64          `json:"mean_personal_parameter"`
	RelationHistogram     map[string]int   `json:"relation_histogram"`
}

// Summarize counts agents per category and subtype and averages the numeric
// fields. Agents read back from a file have no category; ClassifyOpinion
// assigns one. Means are rounded to two decimals.
func Summarize(agents []Agent) Summary {
	s := Summary{
		Total:             len(agents),
		ByCategory:        make(map[Category]int),
		BySubType:         make(map[SubType]int),
		RelationHistogram: make(map[string]int),
	}
	if len(agents) == 0 {
		return s
	}

	var opinion, personal, charisme float64
	var ties int
	for _, a := range agents {
		category := a.Category
		if !category.Valid() {
			category = ClassifyOpinion(a.Opinion)
		}
		s.ByCategory[category]++
		s.BySubType[a.SubType]++

		opinion += a.Opinion
		personal += a.PersonalParameter
		for _, v := range a.Charisme {
			charisme += v
			ties++
		}
		for _, v := range a.Relation {
			s.RelationHistogram[relationLabel(v)]++
		}
	}

	n := float64(len(agents))
	s.MeanOpinion = Round(opinion / n)
	s.MeanPersonalParameter = Round(personal / n)
	if ties > 0 {
		s.MeanCharisme = Round(charisme / float64(ties))
	}
	return s
}

// relationLabel names a relation value after its menu label.
func relationLabel(v float64) string {
	for _, c := range RelationChoices() {
		if c.Value == v {
			return c.Label
		}
	}
	return "Other"
}
