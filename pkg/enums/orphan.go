package enums

import "fmt"

// OrphanStatus describes where a ledgered remote asset is in reconciliation.
type OrphanStatus string

const (
	OrphanStatusPending   OrphanStatus = "pending"
	OrphanStatusResolved  OrphanStatus = "resolved"
	OrphanStatusAbandoned OrphanStatus = "abandoned"
)

var validOrphanStatuses = []OrphanStatus{
	OrphanStatusPending,
	OrphanStatusResolved,
	OrphanStatusAbandoned,
}

func (s OrphanStatus) String() string {
	return string(s)
}

func (s OrphanStatus) IsValid() bool {
	for _, candidate := range validOrphanStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseOrphanStatus(value string) (OrphanStatus, error) {
	for _, candidate := range validOrphanStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid orphan status %q", value)
}

// OrphanReason records which flow failed to delete the remote asset.
type OrphanReason string

const (
	// OrphanReasonCompensation: an upload saga could not undo an upload.
	OrphanReasonCompensation OrphanReason = "compensation"
	// OrphanReasonRecordDelete: a record was deleted but its asset was not.
	OrphanReasonRecordDelete OrphanReason = "record_delete"
	// OrphanReasonReplace: the superseded asset of an update was not deleted.
	OrphanReasonReplace OrphanReason = "replace"
)

func (r OrphanReason) String() string {
	return string(r)
}
