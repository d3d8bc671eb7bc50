package agent

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"time"

	"pickit/internal/app/cache"
	"pickit/internal/app/interact"
	"pickit/internal/app/ports"
	"pickit/internal/app/selection"
	"pickit/internal/config"
)

// Journal receives finished attempts. Submit must not block the tick.
type Journal interface {
	Submit(record ports.AttemptRecord) bool
}

type Options struct {
	Settings config.Settings
	Input    ports.Input
	Rules    ports.RuleProvider
	Journal  Journal
	Metrics  ports.PickupMetrics
	Trace    ports.MotionTrace
	Logger   *slog.Logger
	Rand     *rand.Rand
	Now      func() time.Time
}

func cacheConfig(st config.Settings, now func() time.Time) (cache.Config, error) {
	cfg := cache.Config{
		Interval:             st.CacheInterval,
		ChestPathPrefixes:    st.ChestPathPrefixes,
		QuestChestPathPrefix: st.QuestChestPathPrefix,
		ClickQuestChests:     st.ClickQuestChests,
		CorpsePath:           st.CorpsePath,
		IgnoredCells:         st.IgnoredCells,
		Now:                  now,
	}
	if st.PortalPathPattern != "" {
		re, err := regexp.Compile(st.PortalPathPattern)
		if err != nil {
			return cfg, fmt.Errorf("%w: portal_path_pattern: %v", config.ErrInvalidSettings, err)
		}
		cfg.PortalPattern = re
	}
	return cfg, nil
}

func selectionSettings(st config.Settings) selection.Settings {
	return selection.Settings{
		PickupRange:               st.PickupRange,
		ScreenMargin:              st.ScreenMargin,
		PickUpEverything:          st.PickUpEverything,
		PickUpWhenInventoryIsFull: st.PickUpWhenInventoryIsFull,
		ClickChests:               st.ClickChests,
		ItemizeCorpses:            st.ItemizeCorpses,
	}
}

func interactConfig(st config.Settings) interact.Config {
	return interact.Config{
		MaxTries:                   st.MaxTries,
		ScreenMargin:               st.ScreenMargin,
		ClickMarginX:               st.ClickMarginX,
		ClickMarginY:               st.ClickMarginY,
		IgnoreMoving:               st.IgnoreMoving,
		ItemDistanceToIgnoreMoving: st.ItemDistanceToIgnoreMoving,
		TargetingTimeout:           st.TargetingTimeout,
		PortalMargin:               st.PortalMargin,
		PortalRecheckDelay:         st.PortalRecheckDelay,
		LogMovement:                st.MouseMovement.LogMovement,
	}
}
