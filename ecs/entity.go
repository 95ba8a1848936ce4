package ecs

import "strconv"

// Entity is a weak reference to a scene node: the low 32 bits are the slot id
// and the high 32 bits the slot's generation at creation. Destroying a node
// bumps its slot generation, so every handle to it stops resolving even after
// the slot is reused. Build commands and attachment snapshots hold these.
// The zero Entity never resolves.
type Entity uint64

type entityID uint32
type generation uint32

const generationShift = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<generationShift | uint64(id))
}

func (e Entity) id() entityID {
	return entityID(uint32(e))
}

func (e Entity) generation() generation {
	return generation(uint32(uint64(e) >> generationShift))
}

// String formats e as "<slot>v<generation>", e.g. "3v1".
func (e Entity) String() string {
	return strconv.FormatUint(uint64(e.id()), 10) + "v" + strconv.FormatUint(uint64(e.generation()), 10)
}

// Valid reports whether e is non-zero. It says nothing about liveness; use
// IsAlive for that.
func (e Entity) Valid() bool {
	return e != 0
}
