package pipeline

import (
	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/coach"
	"jordanella.com/royale-coach/internal/config"
	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/dataset"
	"jordanella.com/royale-coach/internal/game"
	"jordanella.com/royale-coach/internal/tracking"
)

// DetectorsFromSettings builds a fresh detector set. Without templates the
// hand is always read as empty.
func DetectorsFromSettings(s *config.Settings, templates []cv.CardTemplate, catalog game.CardCatalog) Detectors {
	if catalog == nil {
		catalog = game.DefaultCatalog()
	}

	var cards *cv.CardRecognizer
	if len(templates) > 0 {
		cards = cv.NewCardRecognizer(s.CardSettings(), templates)
	}

	return Detectors{
		Motion:      cv.NewMotionAnalyzer(s.MotionSettings()),
		Elixir:      cv.NewElixirEstimator(s.ElixirSettings()),
		Phase:       cv.NewPhaseEstimator(s.PhaseSettings()),
		Cards:       cards,
		HpBars:      cv.NewHpBarDetector(s.Detectors.HpBar.Options()...),
		Labels:      cv.NewLevelLabelDetector(s.Detectors.LevelLabel.Options()...),
		Spawns:      tracking.NewSpawnEventDetector(s.SpawnSettings()),
		Suggestions: coach.NewSuggestionEngine(s.SuggestionSettings(), coach.NewCardSelector(s.SelectionSettings(), catalog)),
		States:      dataset.NewStateBuilder(s.Training.RecentSpawnSeconds),
		Actions:     actions.NewDetector(s.DetectorSettings(), catalog, s.Resolvers()...),
	}
}

// RecordingFromSettings converts the training section
func RecordingFromSettings(s *config.Settings) RecordingSettings {
	return RecordingSettings{
		Enabled:         s.Training.Enabled,
		OutputDir:       s.Training.OutputDir,
		FileNamePattern: s.Training.FileNamePattern,
	}
}

// FrameSaverFromSettings returns nil unless frame dumps are enabled
func FrameSaverFromSettings(s *config.Settings) *dataset.FrameSaver {
	if !s.Training.Enabled || !s.Training.Frames.Save {
		return nil
	}
	return dataset.NewFrameSaver(s.FrameSaverSettings())
}
