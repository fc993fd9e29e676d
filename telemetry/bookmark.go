package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/vortex/diagnostics"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSheddingOnset  BookmarkType = "shedding_onset"
	BookmarkPeriodicWake   BookmarkType = "periodic_wake"
	BookmarkHighSpeed      BookmarkType = "high_speed"
	BookmarkMassDrift      BookmarkType = "mass_drift"
	BookmarkEnstrophySpike BookmarkType = "enstrophy_spike"
)

// Thresholds for the detectors.
const (
	// Lattice speeds above this leave the low-Mach regime (cs = 1/sqrt(3)).
	highSpeedLimit = 0.35
	// Relative change of total mass from the first frame.
	massDriftLimit = 0.01
	spikeFactor    = 3.0
	periodicFrames = 5
)

// Bookmark is an automatically detected moment of interest.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Step        int          `csv:"step"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// BookmarkDetector watches sampled frame statistics for flow events.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []diagnostics.FrameStats
	historySize int
	historyIdx  int
	historyFull bool

	initialMass    float64
	initialStep    int
	baseStd        float64 // vorticity spread of the first frames
	shedding       bool
	periodicCount  int
	periodicFired  bool
	highSpeedFired bool
	massFired      bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < periodicFrames {
		historySize = periodicFrames
	}
	return &BookmarkDetector{
		history:     make([]diagnostics.FrameStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest frame and returns any triggered bookmarks.
// Every type except enstrophy spikes fires at most once per run.
func (bd *BookmarkDetector) Check(stats diagnostics.FrameStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyIdx == 0 && !bd.historyFull {
		bd.initialMass = stats.Mass
		bd.initialStep = stats.Step
		bd.baseStd = stats.VortStd
	} else {
		for _, check := range []func(diagnostics.FrameStats) *Bookmark{
			bd.checkSheddingOnset,
			bd.checkPeriodicWake,
			bd.checkEnstrophySpike,
		} {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}
	if b := bd.checkHighSpeed(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkMassDrift(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats diagnostics.FrameStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns the last n frames in order, or nil if fewer exist.
func (bd *BookmarkDetector) recent(n int) []diagnostics.FrameStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	if n > count {
		return nil
	}
	out := make([]diagnostics.FrameStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

// checkSheddingOnset fires when the wake's vorticity spread first grows well
// beyond that of the start-up flow.
func (bd *BookmarkDetector) checkSheddingOnset(stats diagnostics.FrameStats) *Bookmark {
	if bd.shedding || bd.baseStd <= 0 {
		return nil
	}
	if stats.VortStd > 2*bd.baseStd && math.Abs(stats.VortMean) < stats.VortStd {
		bd.shedding = true
		return &Bookmark{
			Type:        BookmarkSheddingOnset,
			Step:        stats.Step,
			Description: fmt.Sprintf("Vorticity spread %.4g is %.1fx the start-up value", stats.VortStd, stats.VortStd/bd.baseStd),
		}
	}
	return nil
}

// checkPeriodicWake fires once the enstrophy has settled within 5% of its
// recent mean for several consecutive frames after shedding began.
func (bd *BookmarkDetector) checkPeriodicWake(stats diagnostics.FrameStats) *Bookmark {
	if bd.periodicFired || !bd.shedding {
		return nil
	}
	prev := bd.recent(periodicFrames - 1)
	if prev == nil {
		return nil
	}

	mean := stats.Enstrophy
	for _, h := range prev {
		mean += h.Enstrophy
	}
	mean /= periodicFrames
	if mean <= 0 {
		return nil
	}

	settled := math.Abs(stats.Enstrophy-mean) < 0.05*mean
	for _, h := range prev {
		settled = settled && math.Abs(h.Enstrophy-mean) < 0.05*mean
	}
	if !settled {
		bd.periodicCount = 0
		return nil
	}
	bd.periodicCount++
	if bd.periodicCount == periodicFrames {
		bd.periodicFired = true
		return &Bookmark{
			Type:        BookmarkPeriodicWake,
			Step:        stats.Step,
			Description: fmt.Sprintf("Enstrophy settled around %.4g", mean),
		}
	}
	return nil
}

// checkEnstrophySpike fires whenever enstrophy jumps well above the rolling
// average.
func (bd *BookmarkDetector) checkEnstrophySpike(stats diagnostics.FrameStats) *Bookmark {
	prev := bd.recent(3)
	if prev == nil {
		return nil
	}
	var avg float64
	for _, h := range prev {
		avg += h.Enstrophy
	}
	avg /= float64(len(prev))
	if avg > 0 && stats.Enstrophy > spikeFactor*avg {
		return &Bookmark{
			Type:        BookmarkEnstrophySpike,
			Step:        stats.Step,
			Description: fmt.Sprintf("Enstrophy %.4g is %.1fx the recent average", stats.Enstrophy, stats.Enstrophy/avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkHighSpeed(stats diagnostics.FrameStats) *Bookmark {
	if bd.highSpeedFired || stats.MaxSpeed <= highSpeedLimit {
		return nil
	}
	bd.highSpeedFired = true
	return &Bookmark{
		Type:        BookmarkHighSpeed,
		Step:        stats.Step,
		Description: fmt.Sprintf("Max speed %.3f exceeds %.2f; compressibility errors grow", stats.MaxSpeed, highSpeedLimit),
	}
}

func (bd *BookmarkDetector) checkMassDrift(stats diagnostics.FrameStats) *Bookmark {
	if bd.massFired || bd.initialMass <= 0 {
		return nil
	}
	drift := (stats.Mass - bd.initialMass) / bd.initialMass
	if math.Abs(drift) <= massDriftLimit {
		return nil
	}
	bd.massFired = true
	return &Bookmark{
		Type:        BookmarkMassDrift,
		Step:        stats.Step,
		Description: fmt.Sprintf("Total mass changed %+.2f%% since step %d", drift*100, bd.initialStep),
	}
}
