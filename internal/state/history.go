package state

import (
	"encoding/json"
	"errors"
	"sort"
)

// Job is one finished (or running) print from Moonraker's job history.
type Job struct {
	Filename      string
	Status        string
	EndTime       float64
	FilamentUsed  float64
	EstimatedTime float64
	TotalDuration float64
}

// JobRecord is a history job as received. Every field is optional except
// the filename, which identifies the job.
type JobRecord struct {
	Filename      *string
	Status        *string
	EndTime       *float64
	FilamentUsed  *float64
	EstimatedTime *float64
	TotalDuration *float64
}

var errJobWithoutFilename = errors.New("job has no filename")

// DecodeJob reads a history job defensively. Malformed optional fields are
// skipped and returned as problems; a job without a usable filename is an
// error.
func DecodeJob(raw json.RawMessage) (JobRecord, []error, error) {
	var d decoder
	obj := d.object("job", raw)
	if obj == nil {
		if len(d.problems) > 0 {
			return JobRecord{}, nil, d.problems[0]
		}
		return JobRecord{}, nil, errJobWithoutFilename
	}
	rec := JobRecord{
		Filename:      field[string](&d, obj, "job", "filename"),
		Status:        field[string](&d, obj, "job", "status"),
		EndTime:       field[float64](&d, obj, "job", "end_time"),
		FilamentUsed:  field[float64](&d, obj, "job", "filament_used"),
		TotalDuration: field[float64](&d, obj, "job", "total_duration"),
	}
	if meta := d.object("job.metadata", obj["metadata"]); meta != nil {
		rec.EstimatedTime = field[float64](&d, meta, "job.metadata", "estimated_time")
	}
	if rec.Filename == nil || *rec.Filename == "" {
		return JobRecord{}, d.problems, errJobWithoutFilename
	}
	return rec, d.problems, nil
}

// History is the de-duplicated set of known jobs, keyed by filename. The
// first record seen for a filename wins; later ones are ignored.
type History struct {
	jobs  []Job
	index map[string]struct{}
}

// Add inserts rec unless a job with the same filename is already known. It
// reports whether the job was added.
func (h *History) Add(rec JobRecord) bool {
	if rec.Filename == nil || *rec.Filename == "" {
		return false
	}
	name := *rec.Filename
	if _, ok := h.index[name]; ok {
		return false
	}
	if h.index == nil {
		h.index = make(map[string]struct{})
	}
	h.index[name] = struct{}{}
	h.jobs = append(h.jobs, Job{
		Filename:      name,
		Status:        deref(rec.Status),
		EndTime:       deref(rec.EndTime),
		FilamentUsed:  deref(rec.FilamentUsed),
		EstimatedTime: deref(rec.EstimatedTime),
		TotalDuration: deref(rec.TotalDuration),
	})
	return true
}

// Len returns the number of known jobs.
func (h *History) Len() int {
	return len(h.jobs)
}

// Jobs returns the jobs in insertion order.
func (h *History) Jobs() []Job {
	if len(h.jobs) == 0 {
		return nil
	}
	out := make([]Job, len(h.jobs))
	copy(out, h.jobs)
	return out
}

// Recent returns the jobs newest first by end time. Jobs with equal end
// times keep insertion order.
func (h *History) Recent() []Job {
	out := h.Jobs()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EndTime > out[j].EndTime
	})
	return out
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
