package loot

import "strings"

// Handle is the stable per-object address reported by the world reader.
type Handle uint64

type Category string

const (
	CategoryGroundItem Category = "ground_item"
	CategoryChest      Category = "chest"
	CategoryCorpse     Category = "corpse"
)

type EntityKind string

const (
	EntityMonster EntityKind = "monster"
	EntityChest   EntityKind = "chest"
	EntityItem    EntityKind = "world_item"
	EntityMisc    EntityKind = "misc"
)

type ItemInfo struct {
	BaseName  string `json:"base_name"`
	ClassName string `json:"class_name"`
	Rarity    string `json:"rarity"`
	ItemLevel int    `json:"item_level"`
	StackSize int    `json:"stack_size"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Label is one ground label: the clickable overlay of an item, chest, corpse
// or portal lying on the ground.
type Label struct {
	Handle      Handle     `json:"handle"`
	LabelHandle Handle     `json:"label_handle"`
	Kind        EntityKind `json:"kind"`
	Path        string     `json:"path"`
	Rect        Rect       `json:"rect"`
	Distance    float64    `json:"distance"`
	WorldPos    Vec3       `json:"world_pos"`
	Valid       bool       `json:"valid"`
	Visible     bool       `json:"visible"`
	Attached    bool       `json:"attached"`
	HasChest    bool       `json:"has_chest"`
	Targetable  bool       `json:"targetable"`
	Targeted    bool       `json:"targeted"`
	Highlighted bool       `json:"highlighted"`
	Item        ItemInfo   `json:"item"`
}

// IsTargeted reports the engine's hover confirmation. Objects without a
// targetable component fall back to the label highlight.
func (l Label) IsTargeted() bool {
	if l.Targetable {
		return l.Targeted
	}
	return l.Highlighted
}

type Entity struct {
	Handle   Handle     `json:"handle"`
	Kind     EntityKind `json:"kind"`
	Path     string     `json:"path"`
	Pos      Vec3       `json:"pos"`
	Valid    bool       `json:"valid"`
	Hostile  bool       `json:"hostile"`
	Alive    bool       `json:"alive"`
	Hidden   bool       `json:"hidden"`
	HasChest bool       `json:"has_chest"`
}

// Snapshot is the read-only view of the world for one tick.
type Snapshot struct {
	Frame              uint64   `json:"frame"`
	Foreground         bool     `json:"foreground"`
	Window             Rect     `json:"window"`
	PlayerPos          Vec3     `json:"player_pos"`
	PlayerMoving       bool     `json:"player_moving"`
	HasInventory       bool     `json:"has_inventory"`
	InventoryPanelOpen bool     `json:"inventory_panel_open"`
	Inventory          Grid     `json:"inventory"`
	Labels             []Label  `json:"labels"`
	Entities           []Entity `json:"entities"`
	Hovered            Handle   `json:"hovered"`
	HoveredItem        Handle   `json:"hovered_item"`
	MousePos           Point    `json:"mouse_pos"`
	KeysDown           []string `json:"keys_down"`
}

func (s Snapshot) Label(h Handle) (Label, bool) {
	for _, l := range s.Labels {
		if l.Handle == h {
			return l, true
		}
	}
	return Label{}, false
}

// GroundItems lists the labels of items lying on the ground.
func (s Snapshot) GroundItems() []Label {
	out := make([]Label, 0, len(s.Labels))
	for _, l := range s.Labels {
		if l.Kind == EntityItem {
			out = append(out, l)
		}
	}
	return out
}

func (s Snapshot) EntitiesByKind(kind EntityKind) []Entity {
	out := make([]Entity, 0)
	for _, e := range s.Entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Present reports whether the object still appears in the snapshot.
func (s Snapshot) Present(h Handle) bool {
	_, ok := s.Label(h)
	return ok
}

func (s Snapshot) KeyDown(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range s.KeysDown {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// WindowOrigin translates window-relative coordinates into screen space.
func (s Snapshot) WindowOrigin() Point {
	return s.Window.TopLeft()
}
