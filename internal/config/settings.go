package config

import (
	"jordanella.com/royale-coach/internal/cv"
)

// Settings is the YAML settings document
type Settings struct {
	Motion        MotionConfig        `yaml:"motion"`
	Elixir        ElixirConfig        `yaml:"elixir"`
	Clock         ClockConfig         `yaml:"clock"`
	Suggestion    SuggestionConfig    `yaml:"suggestion"`
	Cards         CardsConfig         `yaml:"cards"`
	CardSelection CardSelectionConfig `yaml:"cardSelection"`
	Training      TrainingConfig      `yaml:"training"`
	Spells        SpellsConfig        `yaml:"spells"`
	Detectors     DetectorsConfig     `yaml:"detectors"`
	Capture       CaptureConfig       `yaml:"capture"`
	Runtime       RuntimeConfig       `yaml:"runtime"`
}

type MotionConfig struct {
	Roi              cv.Roi  `yaml:"roi"`
	Step             int     `yaml:"step"`
	DiffThreshold    int     `yaml:"diffThreshold"`
	TriggerThreshold int64   `yaml:"triggerThreshold"`
	SplitX           float32 `yaml:"splitX01"`
}

type ElixirConfig struct {
	Roi             cv.Roi  `yaml:"roi"`
	SampleStep      int     `yaml:"sampleStep"`
	PurpleRMin      int     `yaml:"purpleRMin"`
	PurpleGMax      int     `yaml:"purpleGMax"`
	PurpleBMin      int     `yaml:"purpleBMin"`
	PurpleRBMaxDiff int     `yaml:"purpleRBMaxDiff"`
	SmoothingWindow int     `yaml:"smoothingWindow"`
	EmptyBaseline   float32 `yaml:"emptyBaseline01"`
	FullBaseline    float32 `yaml:"fullBaseline01"`
}

type ClockConfig struct {
	Roi             cv.Roi  `yaml:"roi"`
	WhiteThreshold  int     `yaml:"whiteThreshold"`
	MinWhiteRatio   float32 `yaml:"minWhiteRatio"`
	EarlyWhiteRatio float32 `yaml:"earlyWhiteRatio"`
}

type SuggestionConfig struct {
	NeedElixir     int `yaml:"needElixir"`
	RequiredStreak int `yaml:"requiredStreak"`
	CooldownMs     int `yaml:"cooldownMs"`
}

type CardsConfig struct {
	TemplateDir string  `yaml:"templateDir"`
	Manifest    string  `yaml:"manifest"`
	HandRoi     cv.Roi  `yaml:"handRoi"`
	SlotCount   int     `yaml:"slotCount"`
	SlotPadding float32 `yaml:"slotInnerPadding01"`
	SampleSize  int     `yaml:"sampleSize"`
	MinScore    float32 `yaml:"minScore"`
}

type CardSelectionConfig struct {
	ExcludeSpells         bool     `yaml:"excludeSpells"`
	ExcludeBuildings      bool     `yaml:"excludeBuildings"`
	ExcludedCardIDs       []string `yaml:"excludedCardIds"`
	DefensivePriority     []string `yaml:"defensivePriority"`
	StrongThreatThreshold int64    `yaml:"strongThreatThreshold"`
}

type TrainingConfig struct {
	Enabled                 bool         `yaml:"enabled"`
	OutputDir               string       `yaml:"outputDir"`
	FileNamePattern         string       `yaml:"fileNamePattern"`
	RecentSpawnSeconds      int          `yaml:"recentSpawnSeconds"`
	PendingTimeoutMs        int          `yaml:"pendingTimeoutMs"`
	ElixirCommitTolerance   int          `yaml:"elixirCommitTolerance"`
	UnitCommitMatchWindowMs int          `yaml:"unitCommitMatchWindowMs"`
	DatabasePath            string       `yaml:"databasePath"`
	Frames                  FramesConfig `yaml:"frames"`
}

type FramesConfig struct {
	Save        bool       `yaml:"save"`
	Dir         string     `yaml:"dir"`
	Format      string     `yaml:"format"`
	JpegQuality int        `yaml:"jpegQuality"`
	MaxWidth    int        `yaml:"maxWidth"`
	Trim        TrimConfig `yaml:"trim"`
}

type TrimConfig struct {
	Enabled         bool    `yaml:"enabled"`
	BlackThreshold  int     `yaml:"blackThreshold"`
	SampleStride    int     `yaml:"sampleStride"`
	MinBlackRatio   float32 `yaml:"minBlackRatio"`
	MaxTrimRatio    float32 `yaml:"maxTrimRatio"`
	MinContentWidth int     `yaml:"minContentWidth"`
}

type SpellsConfig struct {
	Enabled       bool           `yaml:"enabled"`
	Roi           cv.Roi         `yaml:"roi"`
	DiffThreshold int            `yaml:"diffThreshold"`
	MinArea       int            `yaml:"minArea"`
	MaxArea       int            `yaml:"maxArea"`
	MinAspect     float64        `yaml:"minAspect"`
	SearchFrames  int            `yaml:"searchFrames"`
	Fireball      FireballConfig `yaml:"fireball"`
}

type FireballConfig struct {
	WhiteThreshold int     `yaml:"whiteThreshold"`
	MinArea        int     `yaml:"minArea"`
	MaxArea        int     `yaml:"maxArea"`
	MinAspect      float64 `yaml:"minAspect"`
	MaxAspect      float64 `yaml:"maxAspect"`
}

type DetectorsConfig struct {
	HpBar      RegionDetectorConfig `yaml:"hpBar"`
	LevelLabel RegionDetectorConfig `yaml:"levelLabel"`
	Spawns     SpawnConfig          `yaml:"spawns"`
}

// RegionDetectorConfig tunes a bucket-grid detector
type RegionDetectorConfig struct {
	Roi           cv.Roi `yaml:"roi"`
	Step          int    `yaml:"step"`
	BucketSize    int    `yaml:"bucketSize"`
	MinBucketHits int    `yaml:"minBucketHits"`
}

type SpawnConfig struct {
	ConfirmDistance  float32 `yaml:"confirmDistance01"`
	RepeatDistance   float32 `yaml:"repeatDistance01"`
	RepeatCooldownMs int     `yaml:"repeatCooldownMs"`
	KeepWindowMs     int     `yaml:"keepWindowMs"`
}

type CaptureConfig struct {
	Method         string      `yaml:"method"`
	Display        int         `yaml:"display"`
	Region         PixelRegion `yaml:"region"`
	ReplayDir      string      `yaml:"replayDir"`
	Loop           bool        `yaml:"loop"`
	TitleBarHeight int         `yaml:"titleBarHeight"`
}

// PixelRegion is a screen rectangle; zero size means the whole display
type PixelRegion struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type RuntimeConfig struct {
	TickIntervalMs     int    `yaml:"tickIntervalMs"`
	LogLevel           string `yaml:"logLevel"`
	LogDir             string `yaml:"logDir"`
	EventBufferSize    int    `yaml:"eventBufferSize"`
	MaxCaptureFailures int    `yaml:"maxCaptureFailures"`
}

// Default returns the reference tuning
func Default() *Settings {
	return &Settings{
		Motion: MotionConfig{
			Roi:              cv.NewRoi(0, 0.46, 1, 0.44),
			Step:             6,
			DiffThreshold:    60,
			TriggerThreshold: 90,
			SplitX:           0.5,
		},
		Elixir: ElixirConfig{
			Roi:             cv.NewRoi(0.08, 0.975, 0.88, 0.02),
			SampleStep:      6,
			PurpleRMin:      120,
			PurpleGMax:      90,
			PurpleBMin:      120,
			PurpleRBMaxDiff: 60,
			SmoothingWindow: 5,
			EmptyBaseline:   0.08,
			FullBaseline:    0.79,
		},
		Clock: ClockConfig{
			Roi:             cv.NewRoi(0.78, 0.02, 0.20, 0.10),
			WhiteThreshold:  210,
			MinWhiteRatio:   0.01,
			EarlyWhiteRatio: 0.05,
		},
		Suggestion: SuggestionConfig{
			NeedElixir:     3,
			RequiredStreak: 2,
			CooldownMs:     700,
		},
		Cards: CardsConfig{
			TemplateDir: "assets/cards",
			Manifest:    "cards.yaml",
			HandRoi:     cv.NewRoi(0.05, 0.90, 0.90, 0.09),
			SlotCount:   4,
			SlotPadding: 0.08,
			SampleSize:  24,
			MinScore:    0.70,
		},
		CardSelection: CardSelectionConfig{
			ExcludeSpells:         true,
			ExcludeBuildings:      true,
			ExcludedCardIDs:       []string{},
			DefensivePriority:     []string{"musketeer", "ice_golem", "skeletons", "ice_spirit", "cannon"},
			StrongThreatThreshold: 50,
		},
		Training: TrainingConfig{
			Enabled:                 false,
			OutputDir:               "dataset",
			FileNamePattern:         "match_{yyyyMMdd_HHmmss}_{matchId}.jsonl",
			RecentSpawnSeconds:      4,
			PendingTimeoutMs:        1500,
			ElixirCommitTolerance:   1,
			UnitCommitMatchWindowMs: 700,
			DatabasePath:            "dataset/samples.db",
			Frames: FramesConfig{
				Save:        false,
				Dir:         "frames",
				Format:      "png",
				JpegQuality: 90,
				MaxWidth:    0,
				Trim: TrimConfig{
					Enabled:         false,
					BlackThreshold:  16,
					SampleStride:    8,
					MinBlackRatio:   0.9,
					MaxTrimRatio:    0.2,
					MinContentWidth: 200,
				},
			},
		},
		Spells: SpellsConfig{
			Enabled:       true,
			Roi:           cv.NewRoi(0.05, 0.08, 0.90, 0.75),
			DiffThreshold: 25,
			MinArea:       40,
			MaxArea:       3000,
			MinAspect:     4.0,
			SearchFrames:  6,
			Fireball: FireballConfig{
				WhiteThreshold: 220,
				MinArea:        60,
				MaxArea:        6000,
				MinAspect:      0.7,
				MaxAspect:      1.4,
			},
		},
		Detectors: DetectorsConfig{
			HpBar: RegionDetectorConfig{
				Roi:           cv.NewRoi(0.05, 0.06, 0.90, 0.74),
				Step:          6,
				BucketSize:    12,
				MinBucketHits: 1,
			},
			LevelLabel: RegionDetectorConfig{
				Roi:           cv.DefaultLevelLabelRoi(),
				Step:          2,
				BucketSize:    6,
				MinBucketHits: 2,
			},
			Spawns: SpawnConfig{
				ConfirmDistance:  0.03,
				RepeatDistance:   0.03,
				RepeatCooldownMs: 800,
				KeepWindowMs:     2000,
			},
		},
		Capture: CaptureConfig{
			Method:         "screen",
			Display:        0,
			TitleBarHeight: 0,
		},
		Runtime: RuntimeConfig{
			TickIntervalMs:     100,
			LogLevel:           "INFO",
			LogDir:             "logs",
			EventBufferSize:    256,
			MaxCaptureFailures: 10,
		},
	}
}
