// Package triage maps Manchester-style triage levels to display descriptors.
package triage

// DefaultLevel is used for missing or out-of-range levels.
const DefaultLevel = 3

// Info describes one triage level.
type Info struct {
	Level          int    `json:"level"`
	Name           string `json:"name"`
	ColorToken     string `json:"color_token"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
	PriorityWindow string `json:"priority_window"`
}

var levels = [...]Info{
	{
		Level:          1,
		Name:           "Rojo - Resucitación",
		ColorToken:     "red",
		Description:    "Riesgo vital inmediato, requiere atención sin demora",
		Icon:           "alert-octagon",
		PriorityWindow: "Inmediata",
	},
	{
		Level:          2,
		Name:           "Naranja - Emergencia",
		ColorToken:     "orange",
		Description:    "Situación muy urgente con riesgo vital potencial",
		Icon:           "alert-triangle",
		PriorityWindow: "10 minutos",
	},
	{
		Level:          3,
		Name:           "Amarillo - Urgente",
		ColorToken:     "yellow",
		Description:    "Urgente pero estable, puede esperar un tiempo breve",
		Icon:           "alert-circle",
		PriorityWindow: "30 minutos",
	},
	{
		Level:          4,
		Name:           "Verde - Menos Urgente",
		ColorToken:     "green",
		Description:    "Situación poco urgente sin riesgo vital",
		Icon:           "info",
		PriorityWindow: "60 minutos",
	},
	{
		Level:          5,
		Name:           "Azul - No Urgente",
		ColorToken:     "blue",
		Description:    "Consulta no urgente, atención programable",
		Icon:           "check-circle",
		PriorityWindow: "120 minutos",
	},
}

// Classify returns the descriptor for level. Anything outside 1..5,
// including the zero value of an unset level, yields the level 3 descriptor.
func Classify(level int) Info {
	if !Valid(level) {
		level = DefaultLevel
	}
	return levels[level-1]
}

// Valid reports whether level is one of the five defined levels.
func Valid(level int) bool {
	return level >= 1 && level <= len(levels)
}

// Levels returns all descriptors in level order.
func Levels() []Info {
	out := make([]Info, len(levels))
	copy(out, levels[:])
	return out
}
