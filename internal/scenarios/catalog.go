// Package scenarios implements the regulatory interest-rate shock engine:
// the per-currency shock magnitudes of Annex Part A, the six scenario
// shape functions, the post-shock maturity floor and the construction of
// shifted curve sets.
package scenarios

import "github.com/riskfolio/irrbb/internal/domain"

// Scenario identifies one entry of the closed regulatory catalog.
type Scenario string

const (
	Base         Scenario = "base"
	ParallelUp   Scenario = "parallel-up"
	ParallelDown Scenario = "parallel-down"
	ShortUp      Scenario = "short-up"
	ShortDown    Scenario = "short-down"
	Steepener    Scenario = "steepener"
	Flattener    Scenario = "flattener"

	// Internal extensions, off by default.
	LongUp   Scenario = "long-up"
	LongDown Scenario = "long-down"
)

// EVEScenarios is the regulatory catalog for EVE.
var EVEScenarios = []Scenario{
	ParallelUp, ParallelDown, ShortUp, ShortDown, Steepener, Flattener,
}

// NIIScenarios is the regulatory catalog for NII.
var NIIScenarios = []Scenario{ParallelUp, ParallelDown}

// Parse validates a scenario id against the closed catalog (including the
// internal long-up/long-down extensions and the base id).
func Parse(id string) (Scenario, error) {
	switch Scenario(id) {
	case Base, ParallelUp, ParallelDown, ShortUp, ShortDown,
		Steepener, Flattener, LongUp, LongDown:
		return Scenario(id), nil
	}
	return "", domain.NewUnsupportedScenario("scenario %q outside the regulatory catalog", id)
}
