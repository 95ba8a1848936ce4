package component

// PrefabItem is the marker data a template expansion leaves on every entity
// it spawns. ItemID is stable across re-expansion so existing entities are
// updated in place instead of respawned.
type PrefabItem struct {
	ItemID string
}

var PrefabItemComponent = NewComponent[PrefabItem]()
