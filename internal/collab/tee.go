// ABOUTME: Simulated TEE scoring-job collaborator.
// ABOUTME: Returns a score/tier/attestation bundle after a short delay.

package collab

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobSpec describes one confidential scoring job. JobRef may be set by
// the caller so the reference is known before the job completes; when
// empty the enclave assigns one.
type JobSpec struct {
	JobRef    string `json:"jobRef,omitempty"`
	DataRef   string `json:"dataRef"`
	Framework string `json:"framework,omitempty"`
}

// JobResult is the bundle a completed scoring job returns.
type JobResult struct {
	JobRef      string    `json:"jobRef"`
	Score       int       `json:"score"`
	Tier        string    `json:"tier"`
	Attestation string    `json:"attestation"`
	Framework   string    `json:"framework"`
	CompletedAt time.Time `json:"completedAt"`
}

// SimEnclave simulates the TEE scoring service. Scores are derived
// arithmetically from the data reference so repeated runs agree; data
// references containing "invalid" fail, giving callers a reproducible
// error path.
type SimEnclave struct {
	latency time.Duration
}

// NewSimEnclave creates a simulated enclave with the given job latency.
func NewSimEnclave(latency time.Duration) *SimEnclave {
	return &SimEnclave{latency: latency}
}

// Run executes one scoring job. Honors context cancellation during the
// simulated enclave time.
func (e *SimEnclave) Run(ctx context.Context, spec JobSpec) (JobResult, error) {
	if spec.DataRef == "" {
		return JobResult{}, fmt.Errorf("running job: dataRef is required")
	}
	if strings.Contains(spec.DataRef, "invalid") {
		return JobResult{}, fmt.Errorf("running job: enclave rejected data reference %q", spec.DataRef)
	}

	if e.latency > 0 {
		select {
		case <-time.After(e.latency):
		case <-ctx.Done():
			return JobResult{}, ctx.Err()
		}
	}

	framework := defaultFramework(spec.Framework)
	score := scoreFor(spec.DataRef)

	jobRef := spec.JobRef
	if jobRef == "" {
		jobRef = uuid.New().String()
	}

	return JobResult{
		JobRef:      jobRef,
		Score:       score,
		Tier:        tierFor(score),
		Attestation: "sim-quote-" + uuid.New().String(),
		Framework:   framework,
		CompletedAt: time.Now(),
	}, nil
}

func defaultFramework(f string) string {
	if f == "" {
		return "sgx-sim"
	}
	return f
}

// scoreFor maps a data reference onto the 300-850 credit range.
func scoreFor(dataRef string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(dataRef))
	return 300 + int(h.Sum32()%551)
}

func tierFor(score int) string {
	switch {
	case score >= 750:
		return "prime"
	case score >= 650:
		return "near-prime"
	case score >= 550:
		return "subprime"
	default:
		return "deep-subprime"
	}
}
