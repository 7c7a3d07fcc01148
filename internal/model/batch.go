package model

// Batch is one emitted geoBatch, persisted verbatim to
// <base>/data/epoch_<E>/<id>.json.
type Batch struct {
	GeoBatchID     string             `json:"geoBatchId"`
	Epoch          int64              `json:"epoch"`
	CompressedFrom []string           `json:"compressedFrom"`
	Data           map[string][]Entry `json:"data"`
	CountLeaves    int                `json:"countLeaves"`
	CountSamples   int                `json:"countSamples"`
	TsMin          *int64             `json:"tsMin"`
	TsMax          *int64             `json:"tsMax"`
	Center         [2]float64         `json:"center"`
	Boundary       [][2]float64       `json:"boundary"`
	ResBase        int                `json:"resBase"`
	ResBatch       int                `json:"resBatch"`
	EpochStartMs   int64              `json:"epochStartMs"`
	WindowMs       int64              `json:"windowMs"`
	SchemaVersion  string             `json:"schemaVersion"`
	HGCParams      HGCParams          `json:"hgcParams"`
	MerkleRoot     string             `json:"merkleRoot"`
	LeavesIndex    map[string]int     `json:"leavesIndex"`
	Hash           string             `json:"hash,omitempty"`
}

// WindowMs is the fixed epoch window length: one hour.
const WindowMs int64 = 3_600_000

// SchemaVersion is the current per-batch and super-root document schema.
const SchemaVersion = "1"

// WithoutHash returns a copy of b with Hash cleared, used when computing
// the content hash that must exclude the Hash field itself. Hash is
// tagged omitempty, so the cleared field is dropped entirely from the
// canonical encoding rather than serialized as an empty string.
func (b Batch) WithoutHash() Batch {
	cp := b
	cp.Hash = ""
	return cp
}

// EpochResult is the in-memory result of compressing one epoch, before
// persistence.
type EpochResult struct {
	Batches      []Batch
	Map          map[string]string // leaf cell -> geoBatchId
	SuperRoot    string
	BatchIDs     []string
	BatchRoots   []string
	HGCParams    HGCParams
	BatchesTotal int
	SamplesTotal int
	TsMin        *int64
	TsMax        *int64
}

// SuperRootDocument is the exact schema of superRoot.json.
type SuperRootDocument struct {
	Epoch         int64          `json:"epoch"`
	SuperRoot     string         `json:"superRoot"`
	BatchIDs      []string       `json:"batchIds"`
	BatchRoots    []string       `json:"batchRoots"`
	SchemaVersion string         `json:"schemaVersion"`
	HGCParams     HGCParams      `json:"hgcParams"`
	Meta          map[string]any `json:"meta,omitempty"`
	TsMin         *int64         `json:"tsMin"`
	TsMax         *int64         `json:"tsMax"`
	BatchesTotal  int            `json:"batchesTotal"`
	SamplesTotal  int            `json:"samplesTotal"`
}
