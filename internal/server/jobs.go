package server

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dygy/songforge/internal/engine"
	"github.com/dygy/songforge/internal/song"
)

// JobStatus is the lifecycle state of a render job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// jobTTL is how long finished jobs and their files stay around
const jobTTL = 30 * time.Minute

// Job represents one render request
type Job struct {
	ID        string                 `json:"id"`
	Status    JobStatus              `json:"status"`
	Stage     string                 `json:"stage"`
	Error     string                 `json:"error,omitempty"`
	Result    *engine.PipelineResult `json:"result,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	workDir   string
}

// JobManager tracks render jobs and their output directories
type JobManager struct {
	jobs    map[string]*Job
	mu      sync.RWMutex
	assets  engine.AssetConfig
	timeout time.Duration
}

// NewJobManager creates a job manager. assets applies to every job.
func NewJobManager(assets engine.AssetConfig, timeout time.Duration) *JobManager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &JobManager{
		jobs:    make(map[string]*Job),
		assets:  assets,
		timeout: timeout,
	}
}

// Create registers a new pending job with its own work directory
func (m *JobManager) Create() (*Job, error) {
	workDir, err := os.MkdirTemp("", "songforge-job-*")
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Stage:     "queued",
		CreatedAt: time.Now(),
		workDir:   workDir,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job, nil
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// RenderRequest is the POST /render body
type RenderRequest struct {
	Spec       *song.Spec      `json:"spec"`
	Seed       int64           `json:"seed"`
	Style      string          `json:"style"`
	Mix        *song.MixConfig `json:"mix,omitempty"`
	WriteStems bool            `json:"write_stems"`
	WriteMIDI  bool            `json:"write_midi"`
}

// Process runs the render pipeline for a job, then schedules cleanup
func (m *JobManager) Process(job *Job, req RenderRequest) {
	defer func() {
		time.AfterFunc(jobTTL, func() {
			os.RemoveAll(job.workDir)
			m.mu.Lock()
			delete(m.jobs, job.ID)
			m.mu.Unlock()
		})
	}()

	m.setStage(job, StatusProcessing, "rendering")

	style := song.ParseStyle(req.Style)
	mixCfg := song.DefaultMixConfig()
	if req.Mix != nil {
		mixCfg = *req.Mix
		if err := mixCfg.Validate(); err != nil {
			m.fail(job, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	result, err := engine.RenderSong(ctx, engine.PipelineConfig{
		Spec:       req.Spec,
		Seed:       req.Seed,
		Style:      song.StylePreset(style),
		Mix:        mixCfg,
		Assets:     m.assets,
		OutputDir:  job.workDir,
		WriteStems: req.WriteStems,
		WriteMIDI:  req.WriteMIDI,
	}, io.Discard)
	if err != nil {
		m.fail(job, err)
		return
	}

	m.mu.Lock()
	job.Result = result
	job.Status = StatusComplete
	job.Stage = "complete"
	m.mu.Unlock()
}

func (m *JobManager) setStage(job *Job, status JobStatus, stage string) {
	m.mu.Lock()
	job.Status = status
	job.Stage = stage
	m.mu.Unlock()
}

func (m *JobManager) fail(job *Job, err error) {
	m.mu.Lock()
	job.Status = StatusFailed
	job.Error = err.Error()
	m.mu.Unlock()
}
