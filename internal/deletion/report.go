package deletion

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/internal/engagement"
)

type Step string

const (
	StepLoad             Step = "load"
	StepAuthorize        Step = "authorize"
	StepDeleteAsset      Step = "delete_asset"
	StepDeleteDependents Step = "delete_dependents"
	StepRemoveRecord     Step = "remove_record"
	StepUnlinkOwner      Step = "unlink_owner"
)

type Result string

const (
	ResultOK      Result = "ok"
	ResultMissing Result = "missing"
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
)

// Outcome is one executed step.
type Outcome struct {
	Step   Step   `json:"step"`
	Result Result `json:"result"`
	Detail string `json:"detail,omitempty"`
}

// Report lists the steps a deletion executed, in order.
type Report struct {
	Kind       string             `json:"kind"`
	RecordID   string             `json:"recordId"`
	Steps      []Outcome          `json:"steps"`
	Dependents engagement.Cleanup `json:"dependents"`
}

func newReport(kind string, id primitive.ObjectID) *Report {
	return &Report{Kind: kind, RecordID: id.Hex()}
}

func (r *Report) add(step Step, result Result, detail string) {
	r.Steps = append(r.Steps, Outcome{Step: step, Result: result, Detail: detail})
}

// Results returns the results recorded for step, in order.
func (r *Report) Results(step Step) []Result {
	var out []Result
	for _, o := range r.Steps {
		if o.Step == step {
			out = append(out, o.Result)
		}
	}
	return out
}

func (r *Report) summary() string {
	parts := make([]string, 0, len(r.Steps))
	for _, o := range r.Steps {
		parts = append(parts, fmt.Sprintf("%s=%s", o.Step, o.Result))
	}
	return strings.Join(parts, " ")
}
