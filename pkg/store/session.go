package store

// SlotName identifies one required parameter of a document request.
type SlotName string

const (
	SlotCategory     SlotName = "category"
	SlotSubtype      SlotName = "subtype"
	SlotPeriod       SlotName = "period"
	SlotOrganization SlotName = "organization"
)

// Slot value sources
const (
	SourceExtracted     = "extracted"
	SourceDeterministic = "deterministic"
	SourceUserConfirmed = "user_confirmed"
	SourceAutoBound     = "auto_bound"
)

// SlotValue is a single filled slot with its provenance.
type SlotValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// ResolvedAt reports whether the slot counts as resolved under the given
// confidence threshold. User-confirmed and auto-bound values are always
// resolved regardless of confidence.
func (v SlotValue) ResolvedAt(threshold float64) bool {
	if v.Source == SourceUserConfirmed || v.Source == SourceAutoBound {
		return true
	}
	return v.Confidence >= threshold
}

// Dialogue intents
const (
	IntentDownload = "download"
	IntentUpload   = "upload"
)

// Dialogue states
const (
	StateCollecting          = "collecting"
	StateAskingCategory      = "asking_category"
	StateAskingSubtype       = "asking_subtype"
	StateAskingPeriod        = "asking_period"
	StateAskingPeriodText    = "asking_period_text"
	StateConfirmingPeriod    = "confirming_period"
	StateAskingOrganization  = "asking_organization"
	StateAwaitingDescription = "awaiting_description"
	StateReady               = "ready"
	StateNoResults           = "no_results"
	StateSelecting           = "selecting"
	StateDone                = "done"
	StateCancelled           = "cancelled"
)

