package notebook

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tailored-agentic-units/computer/core/exec"
	"github.com/tailored-agentic-units/computer/kernel"
	"github.com/tailored-agentic-units/computer/observability"
)

// Service owns the set of open documents and their bound kernel sessions.
// The binding is 1:1 and exclusive: a document and its session are created
// and destroyed together, and only the Service touches the registry that
// maps one to the other.
//
// Registry mutations (create, delete, load) and lookups are serialized by a
// single mutex so concurrent create-delete-execute on the same identifier
// cannot race. Persistence always runs outside that mutex, on the calling
// goroutine, so a slow disk never blocks other sessions.
type Service struct {
	cfg         Config
	registry    *kernel.Registry
	store       *Store
	observer    observability.Observer
	sessionOpts []kernel.SessionOption

	mu       sync.Mutex
	docs     map[string]*Document
	sessions map[string]*kernel.Session
}

// ServiceOption configures a Service at construction.
type ServiceOption func(*Service)

// WithObserver sets the observer receiving orchestration events.
func WithObserver(o observability.Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithStore overrides the config-created artifact store.
func WithStore(store *Store) ServiceOption {
	return func(s *Service) { s.store = store }
}

// WithSessionOptions sets the options applied to every kernel session the
// service creates.
func WithSessionOptions(opts ...kernel.SessionOption) ServiceOption {
	return func(s *Service) { s.sessionOpts = opts }
}

// NewService creates a Service persisting documents under cfg.Dir and
// launching kernels through registry.
func NewService(cfg Config, registry *kernel.Registry, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		registry: registry,
		observer: observability.NoOpObserver{},
		docs:     make(map[string]*Document),
		sessions: make(map[string]*kernel.Session),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		store, err := NewStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		s.store = store
	}

	return s, nil
}

// newSession builds and starts a session for a kernel kind. Nothing is
// registered on failure.
func (s *Service) newSession(ctx context.Context, kind string) (*kernel.Session, error) {
	spec, launch, err := s.registry.Lookup(kind)
	if err != nil {
		return nil, err
	}

	sess := kernel.NewSession(spec, launch, s.sessionOpts...)
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// CreateDocument allocates a document bound to a fresh kernel session and
// persists the empty artifact. The kernel is started first: when startup
// fails the document is never registered, so a failed create leaves no
// trace.
func (s *Service) CreateDocument(ctx context.Context, name, kind string) (*Document, error) {
	sess, err := s.newSession(ctx, kind)
	if err != nil {
		return nil, err
	}

	doc := NewDocument(name, kind)

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.sessions[doc.ID] = sess
	data, encErr := Encode(doc)
	s.mu.Unlock()

	if err := s.writeArtifact(ctx, doc.ID, data, encErr); err != nil {
		// Roll the registration back: a create that could not persist must
		// not leave a live session bound to an id the caller never saw.
		s.mu.Lock()
		delete(s.docs, doc.ID)
		delete(s.sessions, doc.ID)
		s.mu.Unlock()
		sess.Shutdown()
		return nil, err
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventDocumentCreate,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "notebook.Service",
		Data: map[string]any{
			"document_id": doc.ID,
			"name":        name,
			"kind":        kind,
			"session_id":  sess.ID(),
		},
	})

	return doc, nil
}

// LoadDocument opens a persisted document: the artifact is decoded and a
// fresh kernel session for its kind is bound to it. Returns the already
// open document when the id is live in the registry.
func (s *Service) LoadDocument(ctx context.Context, docID string) (*Document, error) {
	s.mu.Lock()
	if doc, open := s.docs[docID]; open {
		s.mu.Unlock()
		return doc, nil
	}
	s.mu.Unlock()

	data, err := s.store.Read(docID)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data, docID)
	if err != nil {
		return nil, err
	}

	sess, err := s.newSession(ctx, doc.KernelName)
	if err != nil {
		return nil, err
	}

	// Re-check under the lock: a concurrent load of the same id may have won
	// the race while the artifact was being read and the kernel started.
	s.mu.Lock()
	if live, open := s.docs[docID]; open {
		s.mu.Unlock()
		sess.Shutdown()
		return live, nil
	}
	s.docs[docID] = doc
	s.sessions[docID] = sess
	s.mu.Unlock()

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventDocumentLoad,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "notebook.Service",
		Data: map[string]any{
			"document_id": docID,
			"kind":        doc.KernelName,
			"cells":       len(doc.Cells),
		},
	})

	return doc, nil
}

// GetDocument returns an open document by id.
func (s *Service) GetDocument(docID string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[docID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	return doc, nil
}

// ListDocuments returns all open documents ordered by creation time.
func (s *Service) ListDocuments() []*Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	return docs
}

// Session returns the kernel session bound to an open document.
func (s *Service) Session(docID string) (*kernel.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[docID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, docID)
	}
	return sess, nil
}

// AddCell appends a cell to the document and persists it. Cell order equals
// call order.
func (s *Service) AddCell(ctx context.Context, docID string, cellType CellType, source string, metadata map[string]any) (*Cell, error) {
	if !cellType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCellType, cellType)
	}

	s.mu.Lock()
	doc, exists := s.docs[docID]
	if !exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}

	cell := NewCell(cellType, source, metadata)
	doc.Cells = append(doc.Cells, cell)
	doc.touch()
	data, encErr := Encode(doc)
	s.mu.Unlock()

	if err := s.writeArtifact(ctx, docID, data, encErr); err != nil {
		return nil, err
	}
	return cell, nil
}

// ClearCellOutput resets one cell's execution outcome and persists.
func (s *Service) ClearCellOutput(ctx context.Context, docID, cellID string) (*Cell, error) {
	s.mu.Lock()
	doc, exists := s.docs[docID]
	if !exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	cell := doc.cell(cellID)
	if cell == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCellNotFound, cellID)
	}

	cell.clearOutput()
	doc.touch()
	data, encErr := Encode(doc)
	s.mu.Unlock()

	if err := s.writeArtifact(ctx, docID, data, encErr); err != nil {
		return nil, err
	}
	return cell, nil
}

// ClearAllOutputs resets every code cell's execution outcome and persists.
func (s *Service) ClearAllOutputs(ctx context.Context, docID string) (*Document, error) {
	s.mu.Lock()
	doc, exists := s.docs[docID]
	if !exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}

	for _, cell := range doc.Cells {
		if cell.Type == CellCode {
			cell.clearOutput()
		}
	}
	doc.touch()
	data, encErr := Encode(doc)
	s.mu.Unlock()

	if err := s.writeArtifact(ctx, docID, data, encErr); err != nil {
		return nil, err
	}
	return doc, nil
}

// ExecuteCell runs one cell on the document's bound session. Non-code cells
// are returned unchanged. The cell's previous outputs are fully replaced by
// the new result, and the document is persisted either way.
func (s *Service) ExecuteCell(ctx context.Context, docID, cellID string, timeout time.Duration) (*Cell, error) {
	if timeout <= 0 {
		timeout = s.cfg.Timeout()
	}

	s.mu.Lock()
	doc, exists := s.docs[docID]
	if !exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	sess := s.sessions[docID]
	if sess == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoSession, docID)
	}
	cell := doc.cell(cellID)
	if cell == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCellNotFound, cellID)
	}
	if cell.Type != CellCode {
		s.mu.Unlock()
		return cell, nil
	}

	cell.Status = StatusRunning
	doc.touch()
	source := cell.Source
	s.mu.Unlock()

	result, execErr := sess.Execute(ctx, source, timeout)

	s.mu.Lock()
	executedAt := time.Now()
	if execErr != nil {
		// Session-infrastructure failure: the cell records it, the error
		// still propagates to the caller.
		cell.Status = StatusError
		cell.Outputs = nil
		cell.ExecutionCount = nil
		cell.Error = &exec.Error{Kind: "SessionError", Message: execErr.Error()}
	} else {
		count := result.ExecutionCount
		cell.ExecutionCount = &count
		cell.Outputs = result.Outputs
		cell.Error = result.Error
		if result.Failed() {
			cell.Status = StatusError
		} else {
			cell.Status = StatusComplete
		}
		cell.ExecutedAt = &executedAt
	}
	doc.touch()
	data, encErr := Encode(doc)
	s.mu.Unlock()

	if err := s.writeArtifact(ctx, docID, data, encErr); err != nil && execErr == nil {
		return nil, err
	}
	if execErr != nil {
		return nil, execErr
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventCellExecute,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "notebook.Service",
		Data: map[string]any{
			"document_id": docID,
			"cell_id":     cellID,
			"status":      string(cell.Status),
		},
	})

	return cell, nil
}

// ExecuteAll runs the document's code cells strictly in document order,
// stopping at the first cell whose resulting status is an error. Later
// cells are left untouched — not executed, not marked skipped.
func (s *Service) ExecuteAll(ctx context.Context, docID string, timeout time.Duration) ([]*Cell, error) {
	s.mu.Lock()
	doc, exists := s.docs[docID]
	if !exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	var codeCells []string
	for _, cell := range doc.Cells {
		if cell.Type == CellCode {
			codeCells = append(codeCells, cell.ID)
		}
	}
	s.mu.Unlock()

	var executed []*Cell
	for _, cellID := range codeCells {
		cell, err := s.ExecuteCell(ctx, docID, cellID, timeout)
		if err != nil {
			return executed, err
		}
		executed = append(executed, cell)
		if cell.Status == StatusError {
			break
		}
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventExecuteAll,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "notebook.Service",
		Data: map[string]any{
			"document_id": docID,
			"executed":    len(executed),
			"code_cells":  len(codeCells),
		},
	})

	return executed, nil
}

// DeleteDocument unbinds and shuts down the document's kernel session,
// removes both registry entries, and deletes the persisted artifact. The
// steps are independent: an earlier failure never prevents a later step.
func (s *Service) DeleteDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	_, hadDoc := s.docs[docID]
	sess, hadSess := s.sessions[docID]
	delete(s.docs, docID)
	delete(s.sessions, docID)
	s.mu.Unlock()

	if !hadDoc && !hadSess {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}

	if hadSess {
		sess.Shutdown()
	}

	err := s.store.Delete(docID)

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventDocumentDelete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "notebook.Service",
		Data:      map[string]any{"document_id": docID},
	})

	return err
}

// ExecuteAdHoc runs code once on a disposable kernel session that is never
// registered. The session is shut down whatever the outcome.
func (s *Service) ExecuteAdHoc(ctx context.Context, code, kind string, timeout time.Duration) (*exec.Result, error) {
	if timeout <= 0 {
		timeout = s.cfg.Timeout()
	}

	sess, err := s.newSession(ctx, kind)
	if err != nil {
		return nil, err
	}
	defer sess.Shutdown()

	return sess.Execute(ctx, code, timeout)
}

// Shutdown shuts down every bound kernel session and clears the registry.
// Documents stay persisted; they can be reopened with LoadDocument.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*kernel.Session)
	s.docs = make(map[string]*Document)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Shutdown()
	}
}

// writeArtifact persists encoded bytes, reporting failures to the observer
// before propagating them.
func (s *Service) writeArtifact(ctx context.Context, docID string, data []byte, encErr error) error {
	err := encErr
	if err == nil {
		err = s.store.Write(docID, data)
	}
	if err != nil {
		s.observer.OnEvent(ctx, observability.Event{
			Type:      EventPersistError,
			Level:     observability.LevelError,
			Timestamp: time.Now(),
			Source:    "notebook.Service",
			Data: map[string]any{
				"document_id": docID,
				"error":       err.Error(),
			},
		})
		return fmt.Errorf("persist document %s: %w", docID, err)
	}
	return nil
}
