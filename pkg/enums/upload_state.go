package enums

// UploadState tracks an upload job through its single pass.
type UploadState string

const (
	UploadStateStaged      UploadState = "staged"
	UploadStateValidating  UploadState = "validating"
	UploadStateUploading   UploadState = "uploading"
	UploadStatePersisting  UploadState = "persisting"
	UploadStateCommitted   UploadState = "committed"
	UploadStateRollingBack UploadState = "rolling_back"
	UploadStateFailed      UploadState = "failed"
)

// Committed and failed have no successors.
var uploadTransitions = map[UploadState][]UploadState{
	UploadStateStaged:      {UploadStateValidating},
	UploadStateValidating:  {UploadStateUploading, UploadStateRollingBack, UploadStateFailed},
	UploadStateUploading:   {UploadStatePersisting, UploadStateRollingBack},
	UploadStatePersisting:  {UploadStateCommitted, UploadStateRollingBack},
	UploadStateRollingBack: {UploadStateFailed},
}

func (s UploadState) String() string {
	return string(s)
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s UploadState) CanTransitionTo(next UploadState) bool {
	for _, candidate := range uploadTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
