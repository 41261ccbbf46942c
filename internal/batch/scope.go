package batch

import "strconv"

// Scope selects which library items a run covers: the whole library or a
// single scene by identifier.
type Scope struct {
	sceneID int
	single  bool
}

// All covers every scene in the library.
func All() Scope {
	return Scope{}
}

// Single covers exactly one scene.
func Single(sceneID int) Scope {
	return Scope{sceneID: sceneID, single: true}
}

// IsSingle reports whether the scope targets one scene.
func (s Scope) IsSingle() bool {
	return s.single
}

// SceneID returns the targeted scene for single scopes.
func (s Scope) SceneID() int {
	return s.sceneID
}

func (s Scope) String() string {
	if s.single {
		return "scene " + strconv.Itoa(s.sceneID)
	}
	return "all"
}

// Label is the stable scope name recorded in run history.
func (s Scope) Label() string {
	if s.single {
		return "scene:" + strconv.Itoa(s.sceneID)
	}
	return "all"
}
