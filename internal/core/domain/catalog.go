package domain

// CategoryRule maps a keyword group to the label it signals.
type CategoryRule struct {
	Label    string   `yaml:"label" json:"label" validate:"required"`
	Keywords []string `yaml:"keywords" json:"keywords" validate:"required,min=1,dive,required"`
}

type ExpertiseDescription struct {
	Level       ExpertiseLevel `yaml:"level" json:"level" validate:"required,oneof=beginner intermediate advanced professional"`
	Description string         `yaml:"description" json:"description"`
}

// Catalog is the fixed text the service runs with: the base directive and the
// ordered classification rules. It is loaded once and only read afterwards.
type Catalog struct {
	BaseDirective   string                 `yaml:"base_directive" validate:"required"`
	DefaultCategory string                 `yaml:"default_category" validate:"required"`
	Rules           []CategoryRule         `yaml:"rules" validate:"required,min=1,dive"`
	Expertise       []ExpertiseDescription `yaml:"expertise" validate:"dive"`
}

// CategoryLabels returns every label a response can carry, rules first.
func (c Catalog) CategoryLabels() []string {
	out := make([]string, 0, len(c.Rules)+1)
	seen := make(map[string]struct{}, len(c.Rules)+1)
	for _, rule := range c.Rules {
		if _, ok := seen[rule.Label]; ok {
			continue
		}
		seen[rule.Label] = struct{}{}
		out = append(out, rule.Label)
	}
	if _, ok := seen[c.DefaultCategory]; !ok && c.DefaultCategory != "" {
		out = append(out, c.DefaultCategory)
	}
	return out
}
