package config

import (
	"image"
	"path/filepath"
	"time"

	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/coach"
	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/dataset"
	"jordanella.com/royale-coach/internal/tracking"
)

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func clampByte(v int) uint8 {
	return uint8(min(255, max(0, v)))
}

// MotionSettings converts the motion section
func (s *Settings) MotionSettings() cv.MotionSettings {
	return cv.MotionSettings{
		Roi:              s.Motion.Roi,
		Step:             s.Motion.Step,
		DiffThreshold:    s.Motion.DiffThreshold,
		TriggerThreshold: s.Motion.TriggerThreshold,
		SplitX:           s.Motion.SplitX,
	}
}

// ElixirSettings converts the elixir section
func (s *Settings) ElixirSettings() cv.ElixirSettings {
	e := s.Elixir
	return cv.ElixirSettings{
		Roi:             e.Roi,
		SampleStep:      e.SampleStep,
		PurpleRMin:      clampByte(e.PurpleRMin),
		PurpleGMax:      clampByte(e.PurpleGMax),
		PurpleBMin:      clampByte(e.PurpleBMin),
		PurpleRBMaxDiff: e.PurpleRBMaxDiff,
		SmoothingWindow: e.SmoothingWindow,
		EmptyBaseline:   e.EmptyBaseline,
		FullBaseline:    e.FullBaseline,
	}
}

// PhaseSettings converts the clock section
func (s *Settings) PhaseSettings() cv.PhaseSettings {
	return cv.PhaseSettings{
		Roi:             s.Clock.Roi,
		WhiteThreshold:  s.Clock.WhiteThreshold,
		MinWhiteRatio:   s.Clock.MinWhiteRatio,
		EarlyWhiteRatio: s.Clock.EarlyWhiteRatio,
	}
}

// CardSettings converts the cards section
func (s *Settings) CardSettings() cv.CardSettings {
	return cv.CardSettings{
		HandRoi:     s.Cards.HandRoi,
		SlotCount:   s.Cards.SlotCount,
		SlotPadding: s.Cards.SlotPadding,
		SampleSize:  s.Cards.SampleSize,
		MinScore:    s.Cards.MinScore,
	}
}

// ManifestPath is the card manifest location inside the template directory
func (s *Settings) ManifestPath() string {
	if filepath.IsAbs(s.Cards.Manifest) {
		return s.Cards.Manifest
	}
	return filepath.Join(s.Cards.TemplateDir, s.Cards.Manifest)
}

// SelectionSettings converts the card selection section
func (s *Settings) SelectionSettings() coach.SelectionSettings {
	c := s.CardSelection
	return coach.SelectionSettings{
		ExcludeSpells:         c.ExcludeSpells,
		ExcludeBuildings:      c.ExcludeBuildings,
		ExcludedIDs:           append([]string(nil), c.ExcludedCardIDs...),
		DefensivePriority:     append([]string(nil), c.DefensivePriority...),
		StrongThreatThreshold: c.StrongThreatThreshold,
	}
}

// SuggestionSettings converts the suggestion section
func (s *Settings) SuggestionSettings() coach.SuggestionSettings {
	return coach.SuggestionSettings{
		NeedElixir:     s.Suggestion.NeedElixir,
		RequiredStreak: s.Suggestion.RequiredStreak,
		Cooldown:       ms(s.Suggestion.CooldownMs),
	}
}

// DetectorSettings converts the action detector part of the training section
func (s *Settings) DetectorSettings() actions.DetectorSettings {
	return actions.DetectorSettings{
		PendingTimeout:        ms(s.Training.PendingTimeoutMs),
		ElixirCommitTolerance: s.Training.ElixirCommitTolerance,
	}
}

// UnitWindow is how close a friendly spawn must follow a commit
func (s *Settings) UnitWindow() time.Duration {
	return ms(s.Training.UnitCommitMatchWindowMs)
}

// SpellSettings converts the spells section
func (s *Settings) SpellSettings() actions.SpellSettings {
	sp := s.Spells
	return actions.SpellSettings{
		Enabled:      sp.Enabled,
		SearchFrames: sp.SearchFrames,
		Log: cv.LogBlobSettings{
			Roi:           sp.Roi,
			DiffThreshold: sp.DiffThreshold,
			MinArea:       sp.MinArea,
			MaxArea:       sp.MaxArea,
			MinAspect:     sp.MinAspect,
		},
		Fireball: cv.FireballBlobSettings{
			Roi:            sp.Roi,
			WhiteThreshold: sp.Fireball.WhiteThreshold,
			MinArea:        sp.Fireball.MinArea,
			MaxArea:        sp.Fireball.MaxArea,
			MinAspect:      sp.Fireball.MinAspect,
			MaxAspect:      sp.Fireball.MaxAspect,
		},
	}
}

// Resolvers builds the placement resolver chain
func (s *Settings) Resolvers() []actions.PlacementResolver {
	return actions.DefaultResolvers(s.SpellSettings(), s.UnitWindow())
}

// Options converts a region detector section to detector options
func (r RegionDetectorConfig) Options() []cv.Option {
	return []cv.Option{
		cv.WithRoi(r.Roi),
		cv.WithStep(r.Step),
		cv.WithBucketSize(r.BucketSize),
		cv.WithMinBucketHits(r.MinBucketHits),
	}
}

// SpawnSettings converts the spawn aggregator section
func (s *Settings) SpawnSettings() tracking.SpawnSettings {
	sp := s.Detectors.Spawns
	return tracking.SpawnSettings{
		ConfirmDistance: sp.ConfirmDistance,
		RepeatDistance:  sp.RepeatDistance,
		RepeatCooldown:  ms(sp.RepeatCooldownMs),
		KeepWindow:      ms(sp.KeepWindowMs),
	}
}

// TrimSettings converts the frame trim section
func (s *Settings) TrimSettings() cv.TrimSettings {
	t := s.Training.Frames.Trim
	return cv.TrimSettings{
		Enabled:         t.Enabled,
		BlackThreshold:  clampByte(t.BlackThreshold),
		SampleStride:    t.SampleStride,
		MinBlackRatio:   t.MinBlackRatio,
		MaxTrimRatio:    t.MaxTrimRatio,
		MinContentWidth: t.MinContentWidth,
	}
}

// FrameSaverSettings converts the frame dump section
func (s *Settings) FrameSaverSettings() dataset.FrameSaverSettings {
	f := s.Training.Frames
	return dataset.FrameSaverSettings{
		FramesDir:   f.Dir,
		Format:      f.Format,
		JpegQuality: f.JpegQuality,
		MaxWidth:    f.MaxWidth,
		Trim:        s.TrimSettings(),
	}
}

// CaptureSettings converts the capture section
func (s *Settings) CaptureSettings() (*cv.CaptureConfig, error) {
	method, err := cv.ParseCaptureMethod(s.Capture.Method)
	if err != nil {
		return nil, err
	}

	r := s.Capture.Region
	var region image.Rectangle
	if r.Width > 0 && r.Height > 0 {
		region = image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	}

	return &cv.CaptureConfig{
		Method:    method,
		Display:   s.Capture.Display,
		Region:    region,
		ReplayDir: s.Capture.ReplayDir,
		Loop:      s.Capture.Loop,
	}, nil
}

// TickInterval is the pipeline period
func (s *Settings) TickInterval() time.Duration {
	return ms(s.Runtime.TickIntervalMs)
}
