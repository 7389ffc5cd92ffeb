package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPlanCollapse  BookmarkType = "plan_collapse"
	BookmarkFallbackSpike BookmarkType = "fallback_spike"
	BookmarkParryStreak   BookmarkType = "parry_streak"
	BookmarkStalemate     BookmarkType = "stalemate"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the arena.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	quietWindows int // consecutive windows without a hit
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkPlanCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFallbackSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkParryStreak(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStalemate(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkPlanCollapse fires when the failure rate doubles against the rolling average.
func (bd *BookmarkDetector) checkPlanCollapse(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.PlanFailures < 5 {
		return nil
	}

	var found, failed int
	for _, h := range history {
		found += h.PlansFound
		failed += h.PlanFailures
	}
	if found+failed == 0 {
		return nil
	}
	avg := float64(failed) / float64(found+failed)

	// A clean history makes any burst of failures notable
	if stats.PlanFailRate > max(avg*2, 0.2) {
		return &Bookmark{
			Type:        BookmarkPlanCollapse,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Plan failure rate %.2f against average %.2f", stats.PlanFailRate, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkFallbackSpike(stats WindowStats) *Bookmark {
	if stats.Fallbacks < 3 || stats.FallbackRate < 0.5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFallbackSpike,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d of %d teleports used the fallback spot", stats.Fallbacks, stats.Teleports),
	}
}

func (bd *BookmarkDetector) checkParryStreak(stats WindowStats) *Bookmark {
	if stats.Parries < 3 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkParryStreak,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d parries in one window", stats.Parries),
	}
}

// checkStalemate fires once after three windows in a row without a hit.
func (bd *BookmarkDetector) checkStalemate(stats WindowStats) *Bookmark {
	if stats.Hits > 0 {
		bd.quietWindows = 0
		return nil
	}
	bd.quietWindows++
	if bd.quietWindows != 3 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStalemate,
		Tick:        stats.WindowEndTick,
		Description: "No hits landed for 3 windows",
	}
}
