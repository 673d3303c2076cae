package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime feature toggles for the progress engine.
// Defaults are code-defined; the environment can override any flag with
// FEATURE_<NAME>=true|false where dots become underscores, e.g.
// FEATURE_PET_EVOLUTION=false.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// Quiz features
	FeatureQuizDaily       = "quiz.daily"        // daily quiz sessions
	FeatureQuizPerformance = "quiz.performance"  // performance series tracking
	FeatureQuizManualReset = "quiz.manual_reset" // user-initiated full reset

	// Pet features
	FeaturePetCompanion = "pet.companion" // virtual companion
	FeaturePetEvolution = "pet.evolution" // evolution on experience threshold

	// Gamification features
	FeatureAchievements = "gamification.achievements" // achievement pass and badges

	// Sync features
	FeatureSyncProgress    = "sync.progress"     // Progress Service reconciliation
	FeatureSyncRemoteStats = "sync.remote_stats" // display-only stats refresh

	// Interface features
	FeatureHTTPAPI = "interface.http" // local HTTP read/mutate API
)

// LoadFeatureFlags loads feature flags from defaults plus environment
// overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	defaults := []Feature{
		{FeatureQuizDaily, "Daily ten-question quiz sessions", true},
		{FeatureQuizPerformance, "Per-answer performance series", true},
		{FeatureQuizManualReset, "User-initiated full quiz reset", true},
		{FeaturePetCompanion, "Virtual companion lifecycle", true},
		{FeaturePetEvolution, "Companion evolution at the experience threshold", true},
		{FeatureAchievements, "Achievement pass and badge catalog", true},
		{FeatureSyncProgress, "Progress Service push and monotonic merge", true},
		{FeatureSyncRemoteStats, "Display-only remote stats refresh", true},
		{FeatureHTTPAPI, "Local HTTP interface", true},
	}
	for i := range defaults {
		f := defaults[i]
		ff.features[f.Name] = &f
	}
}

func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
		if val := os.Getenv(envKey); val != "" {
			if enabled, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = enabled
			}
		}
	}
}

// IsEnabled reports whether the named feature is on. Unknown names are off.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	f, ok := ff.features[name]
	return ok && f.Enabled
}

// Enable turns a feature on at runtime.
func (ff *FeatureFlags) Enable(name string) {
	ff.setEnabled(name, true)
}

// Disable turns a feature off at runtime.
func (ff *FeatureFlags) Disable(name string) {
	ff.setEnabled(name, false)
}

func (ff *FeatureFlags) setEnabled(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if f, ok := ff.features[name]; ok {
		f.Enabled = enabled
	}
}

// List returns a copy of all flags for display.
func (ff *FeatureFlags) List() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	return out
}
