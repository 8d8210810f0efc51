package defn

// Reserved face ids.
const (
	// InvalidFaceID marks a face reference that must never be sent on.
	InvalidFaceID uint64 = 0
	// FaceIDContentStore is the pseudo-face standing in for the local cache
	// when data is returned by a direct Content Store hit.
	FaceIDContentStore uint64 = 1
)
