package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pickit/internal/app/ports"
	"pickit/internal/domain/loot"
	"pickit/internal/domain/motion"
)

type Settings struct {
	Enable bool `yaml:"enable"`

	PickUpKey           string `yaml:"pick_up_key"`
	ProfilerHotkey      string `yaml:"profiler_hotkey"`
	LazyLootingPauseKey string `yaml:"lazy_looting_pause_key"`
	CancelKey           string `yaml:"cancel_key"`
	LeftButtonKey       string `yaml:"left_button_key"`

	PickUpWhenInventoryIsFull  bool          `yaml:"pick_up_when_inventory_is_full"`
	PickupRange                float64       `yaml:"pickup_range"`
	IgnoreMoving               bool          `yaml:"ignore_moving"`
	ItemDistanceToIgnoreMoving float64       `yaml:"item_distance_to_ignore_moving"`
	PauseBetweenClicks         time.Duration `yaml:"pause_between_clicks"`
	PickUpEverything           bool          `yaml:"pick_up_everything"`
	IgnoredCells               []loot.Cell   `yaml:"ignored_cells"`

	AutoClickHoveredLootInRange bool    `yaml:"auto_click_hovered_loot_in_range"`
	HoverPickupDistance         float64 `yaml:"hover_pickup_distance"`

	LazyLooting                  bool          `yaml:"lazy_looting"`
	NoLazyLootingWhileEnemyClose bool          `yaml:"no_lazy_looting_while_enemy_close"`
	LazyLootingPause             time.Duration `yaml:"lazy_looting_pause"`
	LazyRadius                   float64       `yaml:"lazy_radius"`
	LazyMaxHeightDelta           float64       `yaml:"lazy_max_height_delta"`
	EnemyIgnorePathSubstrings    []string      `yaml:"enemy_ignore_path_substrings"`

	ClickChests          bool     `yaml:"click_chests"`
	ClickQuestChests     bool     `yaml:"click_quest_chests"`
	ItemizeCorpses       bool     `yaml:"itemize_corpses"`
	ChestPathPrefixes    []string `yaml:"chest_path_prefixes"`
	QuestChestPathPrefix string   `yaml:"quest_chest_path_prefix"`
	CorpsePath           string   `yaml:"corpse_path"`
	PortalPathPattern    string   `yaml:"portal_path_pattern"`

	ScreenMargin       float64       `yaml:"screen_margin"`
	ClickMarginX       float64       `yaml:"click_margin_x"`
	ClickMarginY       float64       `yaml:"click_margin_y"`
	MaxTries           int           `yaml:"max_tries"`
	TargetingTimeout   time.Duration `yaml:"targeting_timeout"`
	PortalMargin       float64       `yaml:"portal_margin"`
	PortalRecheckDelay time.Duration `yaml:"portal_recheck_delay"`
	CacheInterval      time.Duration `yaml:"cache_interval"`

	DebugHighlight  bool            `yaml:"debug_highlight"`
	RulesDir        string          `yaml:"rules_dir"`
	CustomConfigDir string          `yaml:"custom_config_dir"`
	Rules           []ports.RuleSet `yaml:"rules"`

	MouseMovement motion.Config        `yaml:"mouse_movement"`
	Fatigue       motion.FatigueConfig `yaml:"fatigue"`
}

func Default() Settings {
	return Settings{
		Enable:              false,
		PickUpKey:           "F",
		LazyLootingPauseKey: "Space",
		CancelKey:           "Escape",
		LeftButtonKey:       "LButton",

		PickupRange:                600,
		ItemDistanceToIgnoreMoving: 20,
		PauseBetweenClicks:         100 * time.Millisecond,

		HoverPickupDistance: 20,

		LazyLootingPause:          2 * time.Second,
		LazyRadius:                275,
		LazyMaxHeightDelta:        50,
		EnemyIgnorePathSubstrings: []string{"ElementalSummoned"},

		ClickChests:      true,
		ClickQuestChests: true,
		ItemizeCorpses:   true,
		ChestPathPrefixes: []string{
			"Metadata/Chests/LeaguesExpedition/",
			"Metadata/Chests/LegionChests/",
			"Metadata/Chests/Blight",
			"Metadata/Chests/Breach/",
			"Metadata/Chests/IncursionChest",
		},
		QuestChestPathPrefix: "Metadata/Chests/QuestChests/",
		CorpsePath:           "Metadata/Terrain/Leagues/Necropolis/Objects/NecropolisCorpseMarker",
		PortalPathPattern:    `^Metadata/(MiscellaneousObjects|Effects/Microtransactions)/.*Portal`,

		ScreenMargin:       36,
		ClickMarginX:       5,
		ClickMarginY:       3,
		MaxTries:           3,
		TargetingTimeout:   60 * time.Millisecond,
		PortalMargin:       100,
		PortalRecheckDelay: 25 * time.Millisecond,
		CacheInterval:      200 * time.Millisecond,

		RulesDir: "./config/pickit",

		MouseMovement: motion.DefaultConfig(),
		Fatigue:       motion.DefaultFatigueConfig(),
	}
}

// Load reads a YAML settings file on top of the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("settings yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

var ErrInvalidSettings = errors.New("invalid settings")

// Validate clamps numeric settings into their supported ranges and rejects
// values that cannot be interpreted.
func (s *Settings) Validate() error {
	s.PickupRange = clampFloat(s.PickupRange, 1, 1000)
	s.ItemDistanceToIgnoreMoving = clampFloat(s.ItemDistanceToIgnoreMoving, 0, 1000)
	s.PauseBetweenClicks = clampDuration(s.PauseBetweenClicks, 0, 500*time.Millisecond)
	s.MouseMovement.BaseSpeed = clampFloat(s.MouseMovement.BaseSpeed, 10, 100)
	s.MouseMovement.MinSteps = int(clampFloat(float64(s.MouseMovement.MinSteps), 3, 20))
	s.MouseMovement.BaseDelay = clampDuration(s.MouseMovement.BaseDelay, 5*time.Millisecond, 50*time.Millisecond)
	s.MouseMovement.RandomizationFactor = clampFloat(s.MouseMovement.RandomizationFactor, 0.01, 0.5)
	if s.MaxTries <= 0 {
		s.MaxTries = Default().MaxTries
	}
	if s.CacheInterval <= 0 {
		s.CacheInterval = Default().CacheInterval
	}
	if s.MouseMovement.MovementType != "" {
		mode, err := motion.ParseMode(string(s.MouseMovement.MovementType))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		s.MouseMovement.MovementType = mode
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
