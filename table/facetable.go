package table

import "github.com/nfd-probe/fw/ndn"

// FaceTable is the registry of faces by id, the sole registrar of face
// identity.
type FaceTable struct {
	faces map[uint64]ndn.Face
}

// NewFaceTable constructs an empty FaceTable.
func NewFaceTable() *FaceTable {
	return &FaceTable{faces: make(map[uint64]ndn.Face)}
}

// Add registers a face under its own id.
func (t *FaceTable) Add(f ndn.Face) {
	t.faces[f.ID()] = f
}

// Remove unregisters a face by id.
func (t *FaceTable) Remove(id uint64) {
	delete(t.faces, id)
}

// Get returns the face registered under id, if any.
func (t *FaceTable) Get(id uint64) (ndn.Face, bool) {
	f, ok := t.faces[id]
	return f, ok
}
