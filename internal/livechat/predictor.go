package livechat

// PredictIndex returns the provisional session order index written the
// moment a comment arrives: one past the last index we know about. The
// authoritative index arrives later from the external order system; rows
// are inserted optimistically and corrected, never blocked.
func PredictIndex(lastKnown int) int {
	return lastKnown + 1
}

// IndexCorrection records a disagreement between the predicted session
// index and the authoritative one.
type IndexCorrection struct {
	Predicted     int `json:"predicted"`
	Authoritative int `json:"authoritative"`
	Drift         int `json:"drift"`
}

// Reconcile compares the provisional index with the authoritative value.
// A correction is returned only when they disagree; duplicates and ordering
// anomalies in the surrounding pipeline are expected and monitored, so this
// never errors.
func Reconcile(predicted, authoritative int) (IndexCorrection, bool) {
	if predicted == authoritative {
		return IndexCorrection{}, false
	}
	return IndexCorrection{
		Predicted:     predicted,
		Authoritative: authoritative,
		Drift:         authoritative - predicted,
	}, true
}
