package guidancesrv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/internal/ai/resumevision"
	"github.com/Abraxas-365/compass/pkg/kernel"
)

// stubCompleter returns canned JSON keyed by system prompt and records the
// order stages were invoked in.
type stubCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	calls     []string
	chatReply string
	chatUser  string
	chatErr   error
}

func newStubCompleter() *stubCompleter {
	return &stubCompleter{
		responses: map[string]string{},
		failures:  map[string]error{},
	}
}

func (c *stubCompleter) CompleteJSON(ctx context.Context, system, user string, out any) error {
	c.mu.Lock()
	c.calls = append(c.calls, system)
	c.mu.Unlock()

	if err, ok := c.failures[system]; ok {
		return err
	}
	raw, ok := c.responses[system]
	if !ok {
		return fmt.Errorf("no canned response for system prompt: %.40s", system)
	}
	return json.Unmarshal([]byte(raw), out)
}

func (c *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.mu.Lock()
	c.chatUser = user
	c.mu.Unlock()
	if c.chatErr != nil {
		return "", c.chatErr
	}
	return c.chatReply, nil
}

func (c *stubCompleter) callCount(system string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call == system {
			n++
		}
	}
	return n
}

type memoryPlanRepo struct {
	mu        sync.Mutex
	plans     map[kernel.PlanID]*guidance.CareerPlan
	createErr error
}

func newMemoryPlanRepo() *memoryPlanRepo {
	return &memoryPlanRepo{plans: map[kernel.PlanID]*guidance.CareerPlan{}}
}

func (r *memoryPlanRepo) Create(ctx context.Context, plan *guidance.CareerPlan) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = plan
	return nil
}

func (r *memoryPlanRepo) GetByID(ctx context.Context, id kernel.PlanID) (*guidance.CareerPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, errors.New("plan not found")
	}
	return plan, nil
}

func (r *memoryPlanRepo) Delete(ctx context.Context, id kernel.PlanID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return errors.New("plan not found")
	}
	delete(r.plans, id)
	return nil
}

func (r *memoryPlanRepo) List(ctx context.Context, ids []kernel.PlanID, pagination kernel.PaginationOptions) (*kernel.Paginated[guidance.CareerPlan], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]guidance.CareerPlan, 0, len(ids))
	for _, id := range ids {
		if plan, ok := r.plans[id]; ok {
			items = append(items, *plan)
		}
	}
	paginated := kernel.NewPaginated(items, pagination.Page, pagination.PageSize, len(items))
	return &paginated, nil
}

func (r *memoryPlanRepo) UpdateResumePDFPath(ctx context.Context, id kernel.PlanID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return errors.New("plan not found")
	}
	plan.ResumePDFPath = path
	return nil
}

func (r *memoryPlanRepo) SimilarPlans(ctx context.Context, req guidance.SimilarPlansRequest) ([]guidance.SimilarPlanResult, error) {
	return []guidance.SimilarPlanResult{}, nil
}

type memoryJobRepo struct {
	mu   sync.Mutex
	jobs map[kernel.JobID]*guidance.PlanJob
}

func newMemoryJobRepo() *memoryJobRepo {
	return &memoryJobRepo{jobs: map[kernel.JobID]*guidance.PlanJob{}}
}

func (r *memoryJobRepo) Create(ctx context.Context, job *guidance.PlanJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memoryJobRepo) Update(ctx context.Context, job *guidance.PlanJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memoryJobRepo) GetByID(ctx context.Context, jobID kernel.JobID) (*guidance.PlanJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	copied := *job
	return &copied, nil
}

func (r *memoryJobRepo) MarkAsProcessing(ctx context.Context, jobID kernel.JobID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return errors.New("job not found")
	}
	now := time.Now()
	job.Status = guidance.JobStatusProcessing
	job.StartedAt = &now
	return nil
}

func (r *memoryJobRepo) MarkAsCompleted(ctx context.Context, jobID kernel.JobID, planID kernel.PlanID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return errors.New("job not found")
	}
	now := time.Now()
	job.Status = guidance.JobStatusCompleted
	job.PlanID = &planID
	job.ProgressPercentage = 100
	job.CompletedAt = &now
	return nil
}

func (r *memoryJobRepo) MarkAsFailed(ctx context.Context, jobID kernel.JobID, errorMsg string, errorDetails map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return errors.New("job not found")
	}
	now := time.Now()
	job.Status = guidance.JobStatusFailed
	job.ErrorMessage = errorMsg
	job.ErrorDetails = errorDetails
	job.FailedAt = &now
	return nil
}

func (r *memoryJobRepo) UpdateProgress(ctx context.Context, jobID kernel.JobID, step guidance.ProcessingStep, percentage int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return errors.New("job not found")
	}
	job.CurrentStep = &step
	job.ProgressPercentage = percentage
	return nil
}

type queuedJob struct {
	jobID   kernel.JobID
	payload []byte
	delay   time.Duration
}

type memoryQueue struct {
	mu         sync.Mutex
	ready      []queuedJob
	delayed    []queuedJob
	enqueueErr error
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{}
}

func (q *memoryQueue) Enqueue(ctx context.Context, jobID kernel.JobID, payload any) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = append(q.ready, queuedJob{jobID: jobID, payload: data})
	return nil
}

func (q *memoryQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ready) == 0 {
		return nil, nil
	}
	job := q.ready[0]
	q.ready = q.ready[1:]
	return job.payload, nil
}

func (q *memoryQueue) EnqueueDelayed(ctx context.Context, jobID kernel.JobID, payload any, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delayed = append(q.delayed, queuedJob{jobID: jobID, payload: data, delay: delay})
	return nil
}

func (q *memoryQueue) MoveDelayedToReady(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	moved := len(q.delayed)
	q.ready = append(q.ready, q.delayed...)
	q.delayed = nil
	return moved, nil
}

func (q *memoryQueue) GetQueueSize(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.ready)), nil
}

func (q *memoryQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = nil
	q.delayed = nil
	return nil
}

type stubEmbedder struct {
	embedding []float32
	err       error
}

func (e *stubEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.embedding, nil
}

type stubScraper struct {
	text string
	err  error
	urls []string
}

func (s *stubScraper) FetchProfileText(ctx context.Context, url string) (string, error) {
	s.urls = append(s.urls, url)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubVision struct {
	transcript *resumevision.Transcript
	err        error
	called     bool
}

func (v *stubVision) TranscribePages(ctx context.Context, pages [][]byte) (*resumevision.Transcript, error) {
	v.called = true
	if v.err != nil {
		return nil, v.err
	}
	return v.transcript, nil
}

// stubExtractor substitutes the PDF text/image extraction so intake paths
// can be exercised without real PDF fixtures
type stubExtractor struct {
	text     string
	textErr  error
	pages    [][]byte
	pagesErr error
}

func (e *stubExtractor) ExtractText(data []byte) (string, error) {
	if e.textErr != nil {
		return "", e.textErr
	}
	return e.text, nil
}

func (e *stubExtractor) ConvertToImages(data []byte) ([][]byte, error) {
	if e.pagesErr != nil {
		return nil, e.pagesErr
	}
	return e.pages, nil
}

// memoryFS is an in-memory fsx.FileSystem
type memoryFS struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryFS() *memoryFS {
	return &memoryFS{files: map[string][]byte{}}
}

func (f *memoryFS) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[filePath]
	if !ok {
		return nil, errors.New("file not found: " + filePath)
	}
	return data, nil
}

func (f *memoryFS) WriteFile(ctx context.Context, filePath string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[filePath] = data
	return nil
}

func (f *memoryFS) WriteFileStream(ctx context.Context, filePath string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return f.WriteFile(ctx, filePath, data)
}

func (f *memoryFS) DeleteFile(ctx context.Context, filePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, filePath)
	return nil
}

func (f *memoryFS) Exists(ctx context.Context, filePath string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[filePath]
	return ok, nil
}

func (f *memoryFS) Join(parts ...string) string {
	return path.Join(parts...)
}

type memoryChatStore struct {
	mu       sync.Mutex
	turns    map[kernel.PlanID][]guidance.ChatTurn
	histErr  error
	storeErr error
}

func newMemoryChatStore() *memoryChatStore {
	return &memoryChatStore{turns: map[kernel.PlanID][]guidance.ChatTurn{}}
}

func (s *memoryChatStore) Append(ctx context.Context, planID kernel.PlanID, role, content string) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[planID] = append(s.turns[planID], guidance.ChatTurn{Role: role, Content: content})
	return nil
}

func (s *memoryChatStore) History(ctx context.Context, planID kernel.PlanID, limit int) ([]guidance.ChatTurn, error) {
	if s.histErr != nil {
		return nil, s.histErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.turns[planID]
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

func (s *memoryChatStore) Clear(ctx context.Context, planID kernel.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, planID)
	return nil
}

// testHarness wires a Service around the in-memory fakes
type testHarness struct {
	service   *Service
	repo      *memoryPlanRepo
	jobRepo   *memoryJobRepo
	queue     *memoryQueue
	llm       *stubCompleter
	embedder  *stubEmbedder
	scraper   *stubScraper
	vision    *stubVision
	extractor *stubExtractor
	files     *memoryFS
	chatStore *memoryChatStore
}

func newTestHarness() *testHarness {
	h := &testHarness{
		repo:      newMemoryPlanRepo(),
		jobRepo:   newMemoryJobRepo(),
		queue:     newMemoryQueue(),
		llm:       newStubCompleter(),
		embedder:  &stubEmbedder{embedding: []float32{0.1, 0.2, 0.3}},
		scraper:   &stubScraper{},
		vision:    &stubVision{},
		extractor: &stubExtractor{},
		files:     newMemoryFS(),
		chatStore: newMemoryChatStore(),
	}
	h.service = NewService(
		h.repo, h.jobRepo, h.queue, h.llm,
		h.embedder, h.scraper, h.vision, h.files, h.chatStore,
	)
	h.service.extractor = h.extractor
	return h
}

// cannedPipelineResponses loads a full set of happy-path stage outputs
func (h *testHarness) cannedPipelineResponses() {
	h.llm.responses[roleSuggesterSystem] = `{"career": "Data Analyst"}`
	h.llm.responses[marketAnalystSystem] = `{
		"overview": "Data analysts turn raw data into business decisions.",
		"technical_skills": ["SQL", "Python", "Tableau"],
		"soft_skills": ["Communication"]
	}`
	h.llm.responses[profileReviewerSystem] = `{
		"resume_strengths": ["Strong academic record"],
		"resume_gaps": ["No SQL experience listed"],
		"linkedin_suggestions": ["Add a headline targeting data roles"]
	}`
	h.llm.responses[resumeTailorSystem] = `{
		"full_name": "Ada Lovelace",
		"email": "ada@example.com",
		"summary": "Aspiring data analyst.",
		"experiences": [{"title": "Research Assistant", "company": "University Lab", "dates": "2024", "description": ["Analyzed survey data"]}],
		"education": "BSc Mathematics",
		"skills": ["Python", "Statistics"]
	}`
	h.llm.responses[actionPlannerSystem] = `{
		"learning_roadmap": "Month 1: SQL fundamentals. Month 2: Python for data.",
		"portfolio_plan": "Build a public dashboard from an open dataset."
	}`
}
