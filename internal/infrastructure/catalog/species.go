package catalog

import (
	"sort"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/pet"
)

// Species describes one selectable companion species and the display names
// of its evolution stages. Stage names are data, not logic: the lifecycle
// only knows the stage keys.
type Species struct {
	ID          string               `json:"id"`
	DisplayName string               `json:"display_name"`
	Icon        string               `json:"icon"`
	StageNames  map[pet.Stage]string `json:"stage_names"`
}

var speciesCatalog = map[string]Species{
	"axolotl": {
		ID:          "axolotl",
		DisplayName: "Axolotl",
		Icon:        "🦎",
		StageNames: map[pet.Stage]string{
			pet.StageEgg:       "Axolotl Egg",
			pet.StageHatchling: "Axolotl Hatchling",
			pet.StageJuvenile:  "Young Axolotl",
			pet.StageAdult:     "Axolotl",
			pet.StageElder:     "Elder Axolotl",
		},
	},
	"fox": {
		ID:          "fox",
		DisplayName: "Fox",
		Icon:        "🦊",
		StageNames: map[pet.Stage]string{
			pet.StageEgg:       "Fox Kit Bundle",
			pet.StageHatchling: "Fox Kit",
			pet.StageJuvenile:  "Young Fox",
			pet.StageAdult:     "Fox",
			pet.StageElder:     "Silver Fox",
		},
	},
	"owl": {
		ID:          "owl",
		DisplayName: "Owl",
		Icon:        "🦉",
		StageNames: map[pet.Stage]string{
			pet.StageEgg:       "Owl Egg",
			pet.StageHatchling: "Owlet",
			pet.StageJuvenile:  "Young Owl",
			pet.StageAdult:     "Owl",
			pet.StageElder:     "Great Owl",
		},
	},
	"dragon": {
		ID:          "dragon",
		DisplayName: "Dragon",
		Icon:        "🐉",
		StageNames: map[pet.Stage]string{
			pet.StageEgg:       "Dragon Egg",
			pet.StageHatchling: "Dragon Hatchling",
			pet.StageJuvenile:  "Drake",
			pet.StageAdult:     "Dragon",
			pet.StageElder:     "Ancient Dragon",
		},
	},
}

// SpeciesByID looks up a species by its identifier.
func SpeciesByID(id string) (Species, bool) {
	s, ok := speciesCatalog[id]
	return s, ok
}

// AllSpecies returns the catalog sorted by ID for stable display.
func AllSpecies() []Species {
	out := make([]Species, 0, len(speciesCatalog))
	for _, s := range speciesCatalog {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StageDisplayName resolves the display name for a species/stage pair,
// falling back to the bare stage key for unknown species.
func StageDisplayName(speciesID string, stage pet.Stage) string {
	if s, ok := speciesCatalog[speciesID]; ok {
		if name, ok := s.StageNames[stage]; ok {
			return name
		}
	}
	return string(stage)
}
