package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/stepwise/internal/llm"
	"github.com/dgallion1/stepwise/internal/parser"
	"github.com/dgallion1/stepwise/internal/prompt"
)

// Mode selects which response grammar a job expects.
type Mode string

const (
	ModeSolve   Mode = "solve"
	ModeImprove Mode = "improve"
)

// JobStatus represents the state of a homework job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusGenerating JobStatus = "generating"
	StatusParsing    JobStatus = "parsing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Input is what the student submitted. Solve jobs use Solve and Images;
// improve jobs use Improve.
type Input struct {
	Solve   prompt.SolveInput
	Improve prompt.ImproveInput
	Images  []llm.Image
}

// Job tracks the state of a single solve or improve request.
type Job struct {
	mu sync.Mutex

	ID     string
	UserID string
	Mode   Mode

	Status JobStatus
	Phase  string
	Model  string
	Cached bool

	CreatedAt time.Time
	UpdatedAt time.Time

	input     Input
	generated int
	solve     *parser.SolveResponse
	improve   *parser.ImproveResult
	errors    []string
}

// NewJob creates a queued job with a time-ordered ID.
func NewJob(mode Mode, userID string, in Input) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Mode:      mode,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		input:     in,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// AddGenerated counts streamed response bytes.
func (j *Job) AddGenerated(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.generated += n
}

func (j *Job) setModel(model string, cached bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Model = model
	j.Cached = cached
}

func (j *Job) setSolve(resp parser.SolveResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.solve = &resp
}

func (j *Job) setImprove(res parser.ImproveResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.improve = &res
}

// Input returns what the job was submitted with.
func (j *Job) Input() Input {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.input
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string                `json:"job_id"`
	UserID    string                `json:"user_id"`
	Mode      Mode                  `json:"mode"`
	Status    JobStatus             `json:"status"`
	Phase     string                `json:"phase"`
	Model     string                `json:"model,omitempty"`
	Cached    bool                  `json:"cached"`
	Generated int                   `json:"generated_bytes"`
	Errors    []string              `json:"errors"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Solve     *parser.SolveResponse `json:"solve,omitempty"`
	Improve   *parser.ImproveResult `json:"improve,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:        j.ID,
		UserID:    j.UserID,
		Mode:      j.Mode,
		Status:    j.Status,
		Phase:     j.Phase,
		Model:     j.Model,
		Cached:    j.Cached,
		Generated: j.generated,
		Errors:    errs,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
		Solve:     j.solve,
		Improve:   j.improve,
	}
}

// Done reports whether the job reached a terminal status.
func (s JobSnapshot) Done() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}
