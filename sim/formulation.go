package sim

// FormulationSuggestion is a template plus the echoed request.
type FormulationSuggestion struct {
	FormulationTemplate `yaml:",inline"`
	DrugPayload         string `json:"drug_payload" yaml:"drug_payload"`
	TargetTissue        string `json:"target_tissue" yaml:"target_tissue"`
	Systemic            bool   `json:"systemic" yaml:"systemic"` // true when no tissue-specific template exists
}

// Optimize returns the recommended formulation for targetTissue.
// Unknown tissues get the generic systemic template; this never fails.
func Optimize(drugPayload, targetTissue string) FormulationSuggestion {
	tmpl, ok := formulationTemplates[targetTissue]
	if !ok {
		tmpl = systemicTemplate
	}
	return FormulationSuggestion{
		FormulationTemplate: tmpl,
		DrugPayload:         drugPayload,
		TargetTissue:        targetTissue,
		Systemic:            !ok,
	}
}
