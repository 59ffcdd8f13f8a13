package domain

// VectorCacheFile is the persisted shape of one model's embedding cache:
// fingerprint-keyed vectors plus the aggregate knowledge-base content hash
// the entries were computed against.
type VectorCacheFile struct {
	Model       string            `json:"model"`
	ContentHash string            `json:"content_hash"`
	Entries     map[string]Vector `json:"entries"`
}

func (f *VectorCacheFile) ApplyDefaults() {
	if f.Entries == nil {
		f.Entries = map[string]Vector{}
	}
}
