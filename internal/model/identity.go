package model

// Provenance indicates which provider produced an Identity.
type Provenance string

// Provenance constants.
const (
	ProvenanceCatalogLookup    Provenance = "catalog_lookup"
	ProvenanceLocalClassifier  Provenance = "local_classifier"
	ProvenanceRemoteClassifier Provenance = "remote_classifier"
	ProvenanceManual           Provenance = "manual"
)

// Identity is the resolved name/category tuple for a scanned item.
// It is created by whichever provider first yields an accepted result
// and is immutable afterwards.
type Identity struct {
	Name       string
	Category   Category
	Provenance Provenance
	Confidence float64
}

// RequiresModeration reports whether an identity from this provenance must
// pass the moderation gate before it may surface to the cart. Catalog
// lookups come from curated third-party data and the local classifier never
// transmits the frame off-device, so only the remote path is gated.
func (p Provenance) RequiresModeration() bool {
	return p == ProvenanceRemoteClassifier
}
