package component

// PrefabInstance marks an entity as a prefab node: one instance of a
// template. LastUpdateID holds the template version applied last.
type PrefabInstance struct {
	Template     string
	Seed         int64
	LastUpdateID uint64
}

var PrefabInstanceComponent = NewComponent[PrefabInstance]()
