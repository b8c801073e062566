// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import "github.com/whimsypingu/scuttle-go/internal/job"

// jobContentPayload mirrors contentPayload for jobs: identifiers instead
// of raw content, since a DownloadJob is not meant to cross the wire in
// full (it may carry sensitive override fields mid-flight).
type jobContentPayload struct {
	ID      string   `json:"id,omitempty"`
	Content []string `json:"content"`
}

func jobPayload(id string) PayloadFunc[job.DownloadJob] {
	return func(items []job.DownloadJob) any {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.Identifier()
		}
		return jobContentPayload{ID: id, Content: ids}
	}
}

// DownloadQueue holds pending DownloadJobs. There is no SetAll: jobs are
// only ever pushed or inserted individually.
type DownloadQueue struct {
	obs *Observable[job.DownloadJob]
}

// NewDownloadQueue creates a DownloadQueue that publishes under source
// via pub.
func NewDownloadQueue(source string, pub Publisher) *DownloadQueue {
	return &DownloadQueue{obs: NewObservable[job.DownloadJob](source, pub)}
}

// Push appends j to the tail.
func (dq *DownloadQueue) Push(j job.DownloadJob) {
	dq.obs.Push(j, ActionPush, jobPayload(j.Identifier()))
}

// InsertNext inserts j just after the job currently at the head.
func (dq *DownloadQueue) InsertNext(j job.DownloadJob) {
	dq.obs.InsertAt(1, j, ActionInsertNext, jobPayload(j.Identifier()))
}

// SetFirst inserts j at the head, ahead of everything else.
func (dq *DownloadQueue) SetFirst(j job.DownloadJob) {
	dq.obs.InsertAt(0, j, ActionSetFirst, jobPayload(j.Identifier()))
}

// RemoveAt removes the job at position i.
func (dq *DownloadQueue) RemoveAt(i int) (job.DownloadJob, bool) {
	return dq.obs.RemoveAt(i, ActionRemove, nil)
}

// Pop removes and returns the head job, blocking while empty. Callers
// drive the worker loop from this method.
func (dq *DownloadQueue) Pop() (job.DownloadJob, bool) {
	return dq.obs.Pop(ActionPop, nil)
}

// SendContent republishes the current snapshot of queued identifiers.
func (dq *DownloadQueue) SendContent() {
	dq.obs.Publish(ActionSendContent, nil)
}

// Contains reports whether any queued job has the given identifier.
func (dq *DownloadQueue) Contains(identifier string) bool {
	return dq.obs.Contains(func(j job.DownloadJob) bool { return j.Identifier() == identifier })
}

// Len returns the number of queued jobs.
func (dq *DownloadQueue) Len() int { return dq.obs.Len() }

// Snapshot returns a copy of the queued jobs in order.
func (dq *DownloadQueue) Snapshot() []job.DownloadJob { return dq.obs.Snapshot() }

// Close unblocks any goroutine parked in Pop.
func (dq *DownloadQueue) Close() { dq.obs.Close() }
