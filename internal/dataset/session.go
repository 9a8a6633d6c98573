package dataset

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultFileNamePattern names one dataset file per match
const DefaultFileNamePattern = "match_{yyyyMMdd_HHmmss}_{matchId}.jsonl"

// DefaultFramesDir is the frames folder inside a match directory
const DefaultFramesDir = "frames"

// MatchSession tracks the running match id, clock and frame counter.
// Times are passed in explicitly.
type MatchSession struct {
	id         string
	start      time.Time
	running    bool
	frameIndex int64
	stoppedAt  time.Time
}

// NewMatchSession creates an idle session
func NewMatchSession() *MatchSession {
	return &MatchSession{}
}

// Start begins a new match with a fresh id
func (s *MatchSession) Start(now time.Time) string {
	s.id = strings.ReplaceAll(uuid.NewString(), "-", "")
	s.start = now
	s.running = true
	s.frameIndex = 0
	s.stoppedAt = time.Time{}
	return s.id
}

// End stops the match clock
func (s *MatchSession) End(now time.Time) {
	if !s.running {
		return
	}
	s.running = false
	s.stoppedAt = now
}

// ID returns the current match id, empty before the first Start
func (s *MatchSession) ID() string {
	return s.id
}

// StartTime returns when the current match began
func (s *MatchSession) StartTime() time.Time {
	return s.start
}

// IsRunning reports whether a match is in progress
func (s *MatchSession) IsRunning() bool {
	return s.running
}

// FrameIndex returns the current frame counter
func (s *MatchSession) FrameIndex() int64 {
	return s.frameIndex
}

// NextFrame advances the frame counter while the match is running
func (s *MatchSession) NextFrame() int64 {
	if s.running {
		s.frameIndex++
	}
	return s.frameIndex
}

// ElapsedMs returns milliseconds since Start, frozen once the match ended
func (s *MatchSession) ElapsedMs(now time.Time) int64 {
	if s.start.IsZero() {
		return 0
	}
	end := now
	if !s.running {
		end = s.stoppedAt
	}
	if end.Before(s.start) {
		return 0
	}
	return end.Sub(s.start).Milliseconds()
}

var (
	timeToken    = regexp.MustCompile(`(?i)\{yyyyMMdd_HHmmss\}`)
	matchIDToken = regexp.MustCompile(`(?i)\{matchId\}`)
)

// BuildFileName expands the time and match id tokens of pattern
func BuildFileName(pattern string, start time.Time, matchID string) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultFileNamePattern
	}
	name := timeToken.ReplaceAllLiteralString(pattern, start.Format("20060102_150405"))
	return matchIDToken.ReplaceAllLiteralString(name, matchID)
}

// NormalizeToFramesRelative rewrites a saved frame path as a forward-slash
// path under framesDir relative to matchDir
func NormalizeToFramesRelative(matchDir, framePath, framesDir string) string {
	if strings.TrimSpace(matchDir) == "" || strings.TrimSpace(framePath) == "" {
		return ""
	}
	if strings.TrimSpace(framesDir) == "" {
		framesDir = DefaultFramesDir
	}

	framePath = strings.ReplaceAll(framePath, `\`, "/")
	full := filepath.FromSlash(framePath)
	if !filepath.IsAbs(full) {
		full = filepath.Join(matchDir, full)
	}
	full = filepath.Clean(full)
	base := filepath.Base(full)
	fallback := path.Join(framesDir, base)

	rel, err := filepath.Rel(matchDir, full)
	if err != nil {
		return fallback
	}
	normalized := filepath.ToSlash(rel)
	for strings.HasPrefix(normalized, "./") {
		normalized = normalized[2:]
	}

	if normalized == ".." || strings.HasPrefix(normalized, "../") {
		return fallback
	}

	lower := strings.ToLower(normalized)
	prefix := strings.ToLower(framesDir) + "/"
	if strings.HasPrefix(lower, prefix) {
		return normalized
	}
	if idx := strings.Index(lower, "/"+prefix); idx >= 0 {
		return normalized[idx+1:]
	}
	return fallback
}
