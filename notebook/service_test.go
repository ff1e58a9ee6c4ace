package notebook_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tailored-agentic-units/computer/kernel"
	"github.com/tailored-agentic-units/computer/notebook"
)

// scriptedTransport is a deterministic in-process kernel: every execute
// request echoes its code on stdout, except code containing "fail", which
// raises a guest error.
type scriptedTransport struct {
	broadcast *kernel.Channel[kernel.Message]
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{broadcast: kernel.NewChannel[kernel.Message](64)}
}

func (t *scriptedTransport) Post(ctx context.Context, msg kernel.Message) error {
	if msg.Type != kernel.MsgExecute {
		return nil
	}
	if strings.Contains(msg.Code, "fail") {
		t.broadcast.TrySend(kernel.Message{
			Type:      kernel.MsgError,
			ErrName:   "RuntimeError",
			ErrValue:  "scripted failure",
			Traceback: []string{"frame 1"},
		})
		return nil
	}
	t.broadcast.TrySend(kernel.Message{Type: kernel.MsgStream, Name: "stdout", Text: msg.Code})
	t.broadcast.TrySend(kernel.Message{Type: kernel.MsgStatus, ExecutionState: "idle"})
	return nil
}

func (t *scriptedTransport) Request(ctx context.Context, msg kernel.Message) (kernel.Message, error) {
	return kernel.Message{Type: kernel.MsgKernelInfoReply, Language: "echo", Version: "1.0"}, nil
}

func (t *scriptedTransport) Receive(ctx context.Context) (kernel.Message, error) {
	return t.broadcast.Receive(ctx)
}

func (t *scriptedTransport) Close() error {
	t.broadcast.Close()
	return nil
}

// countingTransport tracks closes so tests can pair every launched kernel
// with its shutdown.
type countingTransport struct {
	*scriptedTransport
	closed *atomic.Int32
}

func (t *countingTransport) Close() error {
	t.closed.Add(1)
	return t.scriptedTransport.Close()
}

// countingRegistry registers an echo kind whose launches and closes are
// counted.
func countingRegistry(t *testing.T, launched, closed *atomic.Int32) *kernel.Registry {
	t.Helper()

	reg := kernel.NewRegistry()
	err := reg.Register(kernel.Spec{Name: "echo", DisplayName: "Echo", Language: "echo"},
		func() (kernel.Transport, error) {
			launched.Add(1)
			return &countingTransport{scriptedTransport: newScriptedTransport(), closed: closed}, nil
		})
	if err != nil {
		t.Fatalf("Register(echo) error = %v", err)
	}
	return reg
}

func testRegistry(t *testing.T) *kernel.Registry {
	t.Helper()

	reg := kernel.NewRegistry()
	err := reg.Register(kernel.Spec{Name: "echo", DisplayName: "Echo", Language: "echo"},
		func() (kernel.Transport, error) { return newScriptedTransport(), nil })
	if err != nil {
		t.Fatalf("Register(echo) error = %v", err)
	}
	err = reg.Register(kernel.Spec{Name: "broken", DisplayName: "Broken", Language: "broken"},
		func() (kernel.Transport, error) { return nil, kernel.ErrLaunchFailed })
	if err != nil {
		t.Fatalf("Register(broken) error = %v", err)
	}
	return reg
}

func testService(t *testing.T) *notebook.Service {
	t.Helper()

	cfg := notebook.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.TimeoutSeconds = 5

	svc, err := notebook.NewService(cfg, testRegistry(t))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(svc.Shutdown)
	return svc
}

func addCodeCell(t *testing.T, svc *notebook.Service, docID, source string) *notebook.Cell {
	t.Helper()

	cell, err := svc.AddCell(context.Background(), docID, notebook.CellCode, source, nil)
	if err != nil {
		t.Fatalf("AddCell() error = %v", err)
	}
	return cell
}

func TestService_CreateDocument(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "analysis", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	if doc.Name != "analysis" || doc.KernelName != "echo" {
		t.Errorf("got document %+v, want name and kind set", doc)
	}

	if _, err := svc.GetDocument(doc.ID); err != nil {
		t.Errorf("GetDocument() error = %v", err)
	}
	sess, err := svc.Session(doc.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess.Kernel().Language != "echo" {
		t.Errorf("got session language %q, want %q", sess.Kernel().Language, "echo")
	}
}

func TestService_CreateDocument_UnknownKind(t *testing.T) {
	svc := testService(t)

	_, err := svc.CreateDocument(context.Background(), "doc", "nonexistent")
	if !errors.Is(err, kernel.ErrKindUnknown) {
		t.Errorf("CreateDocument() error = %v, want ErrKindUnknown", err)
	}
	if docs := svc.ListDocuments(); len(docs) != 0 {
		t.Errorf("failed create left %d documents registered, want 0", len(docs))
	}
}

func TestService_CreateDocument_LaunchFailure(t *testing.T) {
	svc := testService(t)

	_, err := svc.CreateDocument(context.Background(), "doc", "broken")
	if !errors.Is(err, kernel.ErrLaunchFailed) {
		t.Errorf("CreateDocument() error = %v, want ErrLaunchFailed", err)
	}
	if docs := svc.ListDocuments(); len(docs) != 0 {
		t.Errorf("failed create left %d documents registered, want 0", len(docs))
	}
}

func TestService_CreateDocument_PersistFailure(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "docs")
	store, err := notebook.NewStore(storeDir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	// Replace the store directory with a regular file so every write fails.
	if err := os.RemoveAll(storeDir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(storeDir, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var launched, closed atomic.Int32
	cfg := notebook.DefaultConfig()
	cfg.Dir = dir

	svc, err := notebook.NewService(cfg, countingRegistry(t, &launched, &closed), notebook.WithStore(store))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(svc.Shutdown)

	if _, err := svc.CreateDocument(context.Background(), "doc", "echo"); err == nil {
		t.Fatal("expected persist error, got nil")
	}

	if docs := svc.ListDocuments(); len(docs) != 0 {
		t.Errorf("failed create left %d documents registered, want 0", len(docs))
	}
	if launched.Load() != closed.Load() {
		t.Errorf("launched %d kernel transports, closed %d: failed create left a live session",
			launched.Load(), closed.Load())
	}
}

func TestService_AddCell_Order(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	sources := []string{"first", "second", "third"}
	ids := map[string]bool{}
	for _, source := range sources {
		cell := addCodeCell(t, svc, doc.ID, source)
		if ids[cell.ID] {
			t.Errorf("duplicate cell ID %q", cell.ID)
		}
		ids[cell.ID] = true
	}

	got, err := svc.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if len(got.Cells) != 3 {
		t.Fatalf("got %d cells, want 3", len(got.Cells))
	}
	for i, cell := range got.Cells {
		if cell.Source != sources[i] {
			t.Errorf("cell %d: got source %q, want %q (order must equal call order)", i, cell.Source, sources[i])
		}
	}
}

func TestService_AddCell_InvalidType(t *testing.T) {
	svc := testService(t)

	doc, err := svc.CreateDocument(context.Background(), "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	_, err = svc.AddCell(context.Background(), doc.ID, notebook.CellType("widget"), "", nil)
	if !errors.Is(err, notebook.ErrInvalidCellType) {
		t.Errorf("AddCell() error = %v, want ErrInvalidCellType", err)
	}
}

func TestService_AddCell_DocumentNotFound(t *testing.T) {
	svc := testService(t)

	_, err := svc.AddCell(context.Background(), "missing", notebook.CellCode, "x", nil)
	if !errors.Is(err, notebook.ErrDocumentNotFound) {
		t.Errorf("AddCell() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestService_ExecuteCell(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	cell := addCodeCell(t, svc, doc.ID, "print('hi')")

	got, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0)
	if err != nil {
		t.Fatalf("ExecuteCell() error = %v", err)
	}

	if got.Status != notebook.StatusComplete {
		t.Errorf("got status %q, want %q", got.Status, notebook.StatusComplete)
	}
	if got.ExecutionCount == nil || *got.ExecutionCount != 1 {
		t.Errorf("got execution count %v, want 1", got.ExecutionCount)
	}
	if len(got.Outputs) != 1 || got.Outputs[0].Text != "print('hi')" {
		t.Errorf("got outputs %+v, want echoed source", got.Outputs)
	}
	if got.ExecutedAt == nil {
		t.Error("ExecutedAt should be set after execution")
	}
}

func TestService_ExecuteCell_NonCode(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	cell, err := svc.AddCell(ctx, doc.ID, notebook.CellMarkdown, "# Title", nil)
	if err != nil {
		t.Fatalf("AddCell() error = %v", err)
	}

	got, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0)
	if err != nil {
		t.Fatalf("ExecuteCell() error = %v", err)
	}
	if got.Status != notebook.StatusIdle {
		t.Errorf("got status %q, want %q (non-code cells are a no-op)", got.Status, notebook.StatusIdle)
	}
	if len(got.Outputs) != 0 {
		t.Errorf("non-code cell has %d outputs, want 0", len(got.Outputs))
	}

	sess, err := svc.Session(doc.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess.ExecutionCount() != 0 {
		t.Error("executing a markdown cell should not touch the kernel")
	}
}

func TestService_ExecuteCell_GuestError(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	cell := addCodeCell(t, svc, doc.ID, "please fail")

	got, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0)
	if err != nil {
		t.Fatalf("guest failure should not be a Go error, got %v", err)
	}
	if got.Status != notebook.StatusError {
		t.Errorf("got status %q, want %q", got.Status, notebook.StatusError)
	}
	if got.Error == nil || got.Error.Kind != "RuntimeError" {
		t.Errorf("got cell error %+v, want RuntimeError", got.Error)
	}
}

func TestService_ExecuteCell_CellNotFound(t *testing.T) {
	svc := testService(t)

	doc, err := svc.CreateDocument(context.Background(), "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	_, err = svc.ExecuteCell(context.Background(), doc.ID, "missing", 0)
	if !errors.Is(err, notebook.ErrCellNotFound) {
		t.Errorf("ExecuteCell() error = %v, want ErrCellNotFound", err)
	}
}

func TestService_ExecuteCell_ReplacesPreviousOutputs(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	cell := addCodeCell(t, svc, doc.ID, "once")

	if _, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0); err != nil {
		t.Fatalf("ExecuteCell() error = %v", err)
	}
	got, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0)
	if err != nil {
		t.Fatalf("ExecuteCell() error = %v", err)
	}

	if len(got.Outputs) != 1 {
		t.Errorf("got %d outputs, want 1 (outputs are replaced, not appended)", len(got.Outputs))
	}
	if got.ExecutionCount == nil || *got.ExecutionCount != 2 {
		t.Errorf("got execution count %v, want 2", got.ExecutionCount)
	}
}

func TestService_ExecuteAll_FailFast(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	addCodeCell(t, svc, doc.ID, "ok one")
	addCodeCell(t, svc, doc.ID, "please fail")
	addCodeCell(t, svc, doc.ID, "ok two")

	executed, err := svc.ExecuteAll(ctx, doc.ID, 0)
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}

	if len(executed) != 2 {
		t.Fatalf("got %d executed cells, want 2 (stop at first error)", len(executed))
	}
	if executed[0].Status != notebook.StatusComplete {
		t.Errorf("cell 0 status = %q, want %q", executed[0].Status, notebook.StatusComplete)
	}
	if executed[1].Status != notebook.StatusError {
		t.Errorf("cell 1 status = %q, want %q", executed[1].Status, notebook.StatusError)
	}

	got, err := svc.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if third := got.Cells[2]; third.Status != notebook.StatusIdle {
		t.Errorf("cell after the failure has status %q, want %q (left untouched)", third.Status, notebook.StatusIdle)
	}
}

func TestService_ExecuteAll_SkipsNonCode(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	addCodeCell(t, svc, doc.ID, "one")
	if _, err := svc.AddCell(ctx, doc.ID, notebook.CellMarkdown, "# prose", nil); err != nil {
		t.Fatalf("AddCell() error = %v", err)
	}
	addCodeCell(t, svc, doc.ID, "two")

	executed, err := svc.ExecuteAll(ctx, doc.ID, 0)
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}
	if len(executed) != 2 {
		t.Errorf("got %d executed cells, want 2 code cells", len(executed))
	}
}

func TestService_ClearAndReExecute(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	cell := addCodeCell(t, svc, doc.ID, "stable output")

	first, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0)
	if err != nil {
		t.Fatalf("ExecuteCell() error = %v", err)
	}
	firstText := first.Outputs[0].Text

	cleared, err := svc.ClearCellOutput(ctx, doc.ID, cell.ID)
	if err != nil {
		t.Fatalf("ClearCellOutput() error = %v", err)
	}
	if cleared.Outputs != nil || cleared.ExecutionCount != nil || cleared.Status != notebook.StatusIdle {
		t.Errorf("cleared cell = %+v, want never-executed shape", cleared)
	}

	second, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0)
	if err != nil {
		t.Fatalf("ExecuteCell() error = %v", err)
	}
	if second.Outputs[0].Text != firstText {
		t.Errorf("re-execution produced %q, want %q", second.Outputs[0].Text, firstText)
	}
}

func TestService_ClearAllOutputs(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	addCodeCell(t, svc, doc.ID, "one")
	addCodeCell(t, svc, doc.ID, "two")
	if _, err := svc.ExecuteAll(ctx, doc.ID, 0); err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}

	got, err := svc.ClearAllOutputs(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ClearAllOutputs() error = %v", err)
	}
	for i, cell := range got.Cells {
		if cell.Outputs != nil || cell.Status != notebook.StatusIdle {
			t.Errorf("cell %d not cleared: %+v", i, cell)
		}
	}
}

func TestService_UpdatedAtStrictlyIncreases(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	previous := doc.UpdatedAt
	for i := 0; i < 3; i++ {
		addCodeCell(t, svc, doc.ID, "x")
		got, err := svc.GetDocument(doc.ID)
		if err != nil {
			t.Fatalf("GetDocument() error = %v", err)
		}
		if !got.UpdatedAt.After(previous) {
			t.Fatalf("UpdatedAt did not advance: %v then %v", previous, got.UpdatedAt)
		}
		previous = got.UpdatedAt
	}
}

func TestService_PersistsOnMutation(t *testing.T) {
	cfg := notebook.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.TimeoutSeconds = 5

	store, err := notebook.NewStore(cfg.Dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	svc, err := notebook.NewService(cfg, testRegistry(t), notebook.WithStore(store))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(svc.Shutdown)

	ctx := context.Background()
	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	if _, err := os.Stat(store.Path(doc.ID)); err != nil {
		t.Fatalf("artifact missing after create: %v", err)
	}

	cell := addCodeCell(t, svc, doc.ID, "persisted")
	if _, err := svc.ExecuteCell(ctx, doc.ID, cell.ID, 0); err != nil {
		t.Fatalf("ExecuteCell() error = %v", err)
	}

	data, err := store.Read(doc.ID)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	restored, err := notebook.Decode(data, doc.ID)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(restored.Cells) != 1 || len(restored.Cells[0].Outputs) != 1 {
		t.Errorf("persisted artifact does not carry the execution outcome: %+v", restored.Cells)
	}
}

func TestService_LoadDocument(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "reloadable", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	addCodeCell(t, svc, doc.ID, "kept source\n")

	// Shutdown closes the sessions and clears the registry but leaves the
	// artifacts on disk.
	svc.Shutdown()

	loaded, err := svc.LoadDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	if loaded.Name != "reloadable" || loaded.KernelName != "echo" {
		t.Errorf("got document %+v, want restored identity", loaded)
	}
	if len(loaded.Cells) != 1 || loaded.Cells[0].Source != "kept source\n" {
		t.Errorf("got cells %+v, want restored source", loaded.Cells)
	}

	// A fresh kernel session is bound to the reopened document.
	if _, err := svc.Session(doc.ID); err != nil {
		t.Errorf("Session() after load error = %v", err)
	}
}

func TestService_LoadDocument_AlreadyOpen(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	loaded, err := svc.LoadDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	if loaded != doc {
		t.Error("loading an open document should return the live instance")
	}
}

func TestService_LoadDocument_ConcurrentSameID(t *testing.T) {
	var launched, closed atomic.Int32

	cfg := notebook.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.TimeoutSeconds = 5

	svc, err := notebook.NewService(cfg, countingRegistry(t, &launched, &closed))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	ctx := context.Background()
	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	svc.Shutdown()

	loaded := make([]*notebook.Document, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := svc.LoadDocument(ctx, doc.ID)
			if err != nil {
				t.Errorf("LoadDocument() error = %v", err)
				return
			}
			loaded[i] = got
		}(i)
	}
	wg.Wait()

	if loaded[0] != loaded[1] {
		t.Error("concurrent loads of one id returned different documents")
	}

	svc.Shutdown()
	if launched.Load() != closed.Load() {
		t.Errorf("launched %d kernel transports, closed %d: a concurrently loaded session leaked",
			launched.Load(), closed.Load())
	}
}

func TestService_LoadDocument_Missing(t *testing.T) {
	svc := testService(t)

	_, err := svc.LoadDocument(context.Background(), "missing")
	if !errors.Is(err, notebook.ErrDocumentNotFound) {
		t.Errorf("LoadDocument() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestService_DeleteDocument(t *testing.T) {
	cfg := notebook.DefaultConfig()
	cfg.Dir = t.TempDir()

	store, err := notebook.NewStore(cfg.Dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	svc, err := notebook.NewService(cfg, testRegistry(t), notebook.WithStore(store))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(svc.Shutdown)

	ctx := context.Background()
	doc, err := svc.CreateDocument(ctx, "doc", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	if err := svc.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}

	if _, err := svc.GetDocument(doc.ID); !errors.Is(err, notebook.ErrDocumentNotFound) {
		t.Errorf("GetDocument() after delete error = %v, want ErrDocumentNotFound", err)
	}
	if _, err := svc.Session(doc.ID); !errors.Is(err, notebook.ErrNoSession) {
		t.Errorf("Session() after delete error = %v, want ErrNoSession", err)
	}
	if _, err := os.Stat(store.Path(doc.ID)); !os.IsNotExist(err) {
		t.Error("artifact should be removed on delete")
	}

	if err := svc.DeleteDocument(ctx, doc.ID); !errors.Is(err, notebook.ErrDocumentNotFound) {
		t.Errorf("second DeleteDocument() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestService_ListDocuments_Order(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	first, err := svc.CreateDocument(ctx, "first", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := svc.CreateDocument(ctx, "second", "echo")
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	docs := svc.ListDocuments()
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != first.ID || docs[1].ID != second.ID {
		t.Error("documents should be ordered by creation time")
	}
}

func TestService_ExecuteAdHoc(t *testing.T) {
	svc := testService(t)

	result, err := svc.ExecuteAdHoc(context.Background(), "throwaway", "echo", 0)
	if err != nil {
		t.Fatalf("ExecuteAdHoc() error = %v", err)
	}
	if len(result.Outputs) != 1 || result.Outputs[0].Text != "throwaway" {
		t.Errorf("got outputs %+v, want echoed code", result.Outputs)
	}
	if docs := svc.ListDocuments(); len(docs) != 0 {
		t.Errorf("ad-hoc execution registered %d documents, want 0", len(docs))
	}
}

func TestService_ExecuteAdHoc_UnknownKind(t *testing.T) {
	svc := testService(t)

	_, err := svc.ExecuteAdHoc(context.Background(), "x", "nonexistent", 0)
	if !errors.Is(err, kernel.ErrKindUnknown) {
		t.Errorf("ExecuteAdHoc() error = %v, want ErrKindUnknown", err)
	}
}
