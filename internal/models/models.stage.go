// FilePath: internal/models/models.stage.go
package models

import "strings"

// Stage is the canonical growth stage of a cultivation cycle. All external
// spellings (Spanish, English, accented, lowercase) are normalized to these
// values at the ingestion boundary via NormalizeStage.
type Stage string

const (
	StageGermination Stage = "Germination"
	StageVegetative  Stage = "Vegetative"
	StageFlowering   Stage = "Flowering"
)

// DefaultStage is used when no active cycle exists or its stage is unknown.
const DefaultStage = StageVegetative

// Band is an inclusive [Min, Max] acceptable range for one parameter.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// StageParameters holds the acceptable bands for every monitored parameter
// at one growth stage.
type StageParameters struct {
	Temperature  Band `json:"temperature"`
	Humidity     Band `json:"humidity"`
	SoilHumidity Band `json:"soil_humidity"`
}

// stageParameters is loaded once and never mutated. Invariant: Min <= Max
// for every band.
var stageParameters = map[Stage]StageParameters{
	StageGermination: {
		Temperature:  Band{Min: 20, Max: 28},
		Humidity:     Band{Min: 70, Max: 80},
		SoilHumidity: Band{Min: 70, Max: 90},
	},
	StageVegetative: {
		Temperature:  Band{Min: 22, Max: 28},
		Humidity:     Band{Min: 40, Max: 70},
		SoilHumidity: Band{Min: 30, Max: 60},
	},
	StageFlowering: {
		Temperature:  Band{Min: 18, Max: 26},
		Humidity:     Band{Min: 40, Max: 50},
		SoilHumidity: Band{Min: 40, Max: 50},
	},
}

// ParametersForStage returns the band set for a canonical stage.
func ParametersForStage(stage Stage) (StageParameters, bool) {
	p, ok := stageParameters[stage]
	return p, ok
}

// Stages returns all canonical stages.
func Stages() []Stage {
	return []Stage{StageGermination, StageVegetative, StageFlowering}
}

// stageAliases maps every spelling observed in stored cycles to the
// canonical stage. Keys are lowercase and accent-free; normalizeKey folds
// input onto them.
var stageAliases = map[string]Stage{
	"germination": StageGermination,
	"germinacion": StageGermination,
	"seedling":    StageGermination,
	"vegetative":  StageVegetative,
	"vegetativa":  StageVegetative,
	"flowering":   StageFlowering,
	"floracion":   StageFlowering,
	"florecida":   StageFlowering,
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
)

// NormalizeStage maps a free-form stage name to the canonical Stage. The
// second return is false when the name is not recognized; callers must skip
// threshold evaluation rather than guess.
func NormalizeStage(name string) (Stage, bool) {
	key := accentFolder.Replace(strings.ToLower(strings.TrimSpace(name)))
	stage, ok := stageAliases[key]
	return stage, ok
}
