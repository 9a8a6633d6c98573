package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"jordanella.com/royale-coach/internal/cv"
)

// INISection is the legacy Settings.ini section holding coach overrides
const INISection = "Coach"

// Load reads a YAML settings file. Missing keys keep their defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := Default()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return settings, nil
}

// LoadOrCreate loads path, writing the defaults there first when it does not exist
func LoadOrCreate(path string) (*Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		settings := Default()
		if err := Save(settings, path); err != nil {
			return nil, err
		}
		return settings, nil
	}
	return Load(path)
}

// Save writes settings as YAML, creating parent directories
func Save(settings *Settings, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// ApplyINI overlays the [Coach] section of a legacy Settings.ini.
// Keys that are absent keep the current value.
func ApplyINI(path string, settings *Settings) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section(INISection)

	// Motion
	settings.Motion.Step = section.Key("motionStep").MustInt(settings.Motion.Step)
	settings.Motion.DiffThreshold = section.Key("motionDiffThreshold").MustInt(settings.Motion.DiffThreshold)
	settings.Motion.TriggerThreshold = section.Key("motionTriggerThreshold").MustInt64(settings.Motion.TriggerThreshold)
	settings.Motion.SplitX = float32(section.Key("motionSplitX01").MustFloat64(float64(settings.Motion.SplitX)))

	// Elixir
	settings.Elixir.SmoothingWindow = section.Key("elixirSmoothingWindow").MustInt(settings.Elixir.SmoothingWindow)

	// Suggestion
	settings.Suggestion.NeedElixir = section.Key("needElixir").MustInt(settings.Suggestion.NeedElixir)
	settings.Suggestion.RequiredStreak = section.Key("requiredStreak").MustInt(settings.Suggestion.RequiredStreak)
	settings.Suggestion.CooldownMs = section.Key("cooldownMs").MustInt(settings.Suggestion.CooldownMs)

	// Cards
	settings.Cards.TemplateDir = section.Key("templateDir").MustString(settings.Cards.TemplateDir)
	settings.Cards.MinScore = float32(section.Key("cardMinScore").MustFloat64(float64(settings.Cards.MinScore)))

	// Card selection
	settings.CardSelection.ExcludeSpells = section.Key("excludeSpells").MustBool(settings.CardSelection.ExcludeSpells)
	settings.CardSelection.ExcludeBuildings = section.Key("excludeBuildings").MustBool(settings.CardSelection.ExcludeBuildings)
	if section.HasKey("excludedCards") {
		settings.CardSelection.ExcludedCardIDs = splitList(section.Key("excludedCards").String())
	}

	// Training
	settings.Training.Enabled = section.Key("trainingEnabled").MustBool(settings.Training.Enabled)
	settings.Training.OutputDir = section.Key("outputDir").MustString(settings.Training.OutputDir)
	settings.Training.FileNamePattern = section.Key("fileNamePattern").MustString(settings.Training.FileNamePattern)
	settings.Training.RecentSpawnSeconds = section.Key("recentSpawnSeconds").MustInt(settings.Training.RecentSpawnSeconds)
	settings.Training.PendingTimeoutMs = section.Key("pendingTimeoutMs").MustInt(settings.Training.PendingTimeoutMs)
	settings.Training.ElixirCommitTolerance = section.Key("elixirCommitTolerance").MustInt(settings.Training.ElixirCommitTolerance)
	settings.Training.UnitCommitMatchWindowMs = section.Key("unitCommitMatchWindowMs").MustInt(settings.Training.UnitCommitMatchWindowMs)
	settings.Training.Frames.Save = section.Key("saveFrames").MustBool(settings.Training.Frames.Save)

	// Spells
	settings.Spells.Enabled = section.Key("spellsEnabled").MustBool(settings.Spells.Enabled)
	settings.Spells.SearchFrames = section.Key("spellSearchFrames").MustInt(settings.Spells.SearchFrames)

	// Capture
	settings.Capture.Method = section.Key("captureMethod").MustString(settings.Capture.Method)
	settings.Capture.Display = section.Key("SelectedMonitorIndex").MustInt(settings.Capture.Display)
	settings.Capture.ReplayDir = section.Key("replayDir").MustString(settings.Capture.ReplayDir)

	// Runtime
	settings.Runtime.TickIntervalMs = section.Key("tickIntervalMs").MustInt(settings.Runtime.TickIntervalMs)
	settings.Runtime.LogLevel = section.Key("logLevel").MustString(settings.Runtime.LogLevel)

	return nil
}

// SaveINI writes the keys ApplyINI understands
func SaveINI(settings *Settings, path string) error {
	cfg := ini.Empty()
	section := cfg.Section(INISection)

	section.Key("motionStep").SetValue(fmt.Sprintf("%d", settings.Motion.Step))
	section.Key("motionDiffThreshold").SetValue(fmt.Sprintf("%d", settings.Motion.DiffThreshold))
	section.Key("motionTriggerThreshold").SetValue(fmt.Sprintf("%d", settings.Motion.TriggerThreshold))
	section.Key("motionSplitX01").SetValue(fmt.Sprintf("%g", settings.Motion.SplitX))

	section.Key("elixirSmoothingWindow").SetValue(fmt.Sprintf("%d", settings.Elixir.SmoothingWindow))

	section.Key("needElixir").SetValue(fmt.Sprintf("%d", settings.Suggestion.NeedElixir))
	section.Key("requiredStreak").SetValue(fmt.Sprintf("%d", settings.Suggestion.RequiredStreak))
	section.Key("cooldownMs").SetValue(fmt.Sprintf("%d", settings.Suggestion.CooldownMs))

	section.Key("templateDir").SetValue(settings.Cards.TemplateDir)
	section.Key("cardMinScore").SetValue(fmt.Sprintf("%g", settings.Cards.MinScore))

	section.Key("excludeSpells").SetValue(fmt.Sprintf("%t", settings.CardSelection.ExcludeSpells))
	section.Key("excludeBuildings").SetValue(fmt.Sprintf("%t", settings.CardSelection.ExcludeBuildings))
	section.Key("excludedCards").SetValue(strings.Join(settings.CardSelection.ExcludedCardIDs, ","))

	section.Key("trainingEnabled").SetValue(fmt.Sprintf("%t", settings.Training.Enabled))
	section.Key("outputDir").SetValue(settings.Training.OutputDir)
	section.Key("fileNamePattern").SetValue(settings.Training.FileNamePattern)
	section.Key("recentSpawnSeconds").SetValue(fmt.Sprintf("%d", settings.Training.RecentSpawnSeconds))
	section.Key("pendingTimeoutMs").SetValue(fmt.Sprintf("%d", settings.Training.PendingTimeoutMs))
	section.Key("elixirCommitTolerance").SetValue(fmt.Sprintf("%d", settings.Training.ElixirCommitTolerance))
	section.Key("unitCommitMatchWindowMs").SetValue(fmt.Sprintf("%d", settings.Training.UnitCommitMatchWindowMs))
	section.Key("saveFrames").SetValue(fmt.Sprintf("%t", settings.Training.Frames.Save))

	section.Key("spellsEnabled").SetValue(fmt.Sprintf("%t", settings.Spells.Enabled))
	section.Key("spellSearchFrames").SetValue(fmt.Sprintf("%d", settings.Spells.SearchFrames))

	section.Key("captureMethod").SetValue(settings.Capture.Method)
	section.Key("SelectedMonitorIndex").SetValue(fmt.Sprintf("%d", settings.Capture.Display))
	section.Key("replayDir").SetValue(settings.Capture.ReplayDir)

	section.Key("tickIntervalMs").SetValue(fmt.Sprintf("%d", settings.Runtime.TickIntervalMs))
	section.Key("logLevel").SetValue(settings.Runtime.LogLevel)

	return cfg.SaveTo(path)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports settings the pipeline cannot run with
func (s *Settings) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	rois := []struct {
		name string
		roi  cv.Roi
	}{
		{"motion.roi", s.Motion.Roi},
		{"elixir.roi", s.Elixir.Roi},
		{"clock.roi", s.Clock.Roi},
		{"cards.handRoi", s.Cards.HandRoi},
		{"spells.roi", s.Spells.Roi},
		{"detectors.hpBar.roi", s.Detectors.HpBar.Roi},
		{"detectors.levelLabel.roi", s.Detectors.LevelLabel.Roi},
	}
	for _, r := range rois {
		check(insideUnit(r.roi), "%s must lie inside the unit square", r.name)
	}

	check(s.Motion.Step > 0, "motion.step must be positive")
	check(s.Motion.SplitX > 0 && s.Motion.SplitX < 1, "motion.splitX01 must be inside (0, 1)")
	check(s.Elixir.FullBaseline > s.Elixir.EmptyBaseline, "elixir.fullBaseline01 must exceed emptyBaseline01")
	check(s.Cards.SlotCount > 0, "cards.slotCount must be positive")
	check(s.Cards.SampleSize >= 4, "cards.sampleSize must be at least 4")
	check(s.Suggestion.RequiredStreak > 0, "suggestion.requiredStreak must be positive")
	check(s.Runtime.TickIntervalMs > 0, "runtime.tickIntervalMs must be positive")
	if _, err := s.CaptureSettings(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func insideUnit(r cv.Roi) bool {
	const eps = 1e-4
	return r.X >= 0 && r.Y >= 0 && r.Width > 0 && r.Height > 0 &&
		r.X+r.Width <= 1+eps && r.Y+r.Height <= 1+eps
}
