package results

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygeni/study-gateway/internal/history"
	"github.com/studygeni/study-gateway/internal/logger"
	"github.com/studygeni/study-gateway/internal/session"
	"github.com/studygeni/study-gateway/internal/studymaterial"
)

// fakeInvoker records invocations and returns a canned result.
type fakeInvoker struct {
	generateCalls int
	fileCalls     int
	lastReq       *studymaterial.GenerateRequest
	err           error
}

func (f *fakeInvoker) Generate(ctx context.Context, req *studymaterial.GenerateRequest) (*studymaterial.Result, error) {
	f.generateCalls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return cannedResult(), nil
}

func (f *fakeInvoker) GenerateFromFile(ctx context.Context, req *studymaterial.FileRequest) (*studymaterial.Result, error) {
	f.fileCalls++
	if f.err != nil {
		return nil, f.err
	}
	return cannedResult(), nil
}

// fakeHistoryBackend is an in-memory history.Backend.
type fakeHistoryBackend struct {
	appended  []*history.Entry
	appendErr error
}

func (f *fakeHistoryBackend) Append(ctx context.Context, ownerID string, entry *history.Entry) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	stored := *entry
	stored.OwnerID = ownerID
	stored.CreatedAt = time.Now()
	f.appended = append(f.appended, &stored)
	return "entry-1", nil
}

func (f *fakeHistoryBackend) List(ctx context.Context, ownerID string) ([]*history.Entry, error) {
	return f.appended, nil
}

func (f *fakeHistoryBackend) Get(ctx context.Context, ownerID, entryID string) (*history.Entry, error) {
	return nil, errors.New("not found")
}

func cannedResult() *studymaterial.Result {
	return &studymaterial.Result{
		Summary:    "canned summary",
		Flashcards: []studymaterial.Flashcard{{Question: "q", Answer: "a"}},
		Quiz: []studymaterial.QuizQuestion{
			{
				Question: "q1",
				Options: []studymaterial.QuizOption{
					{Option: "right", IsCorrect: true},
					{Option: "wrong", IsCorrect: false},
				},
			},
		},
	}
}

func topicRequest() *studymaterial.GenerateRequest {
	return &studymaterial.GenerateRequest{
		InputMethod:     studymaterial.InputMethodTopic,
		Topic:           "Photosynthesis",
		Purpose:         studymaterial.PurposeRevision,
		DifficultyLevel: studymaterial.DifficultyBeginner,
	}
}

func newTestService(invoker Invoker, backend history.Backend) (*Service, *session.Store) {
	log := logger.New(logger.Config{Level: slog.LevelError})
	sessions := session.NewStore(time.Hour)
	return NewService(invoker, history.NewService(backend, log), sessions, log), sessions
}

func TestGenerateSignedInRecordsHistory(t *testing.T) {
	invoker := &fakeInvoker{}
	backend := &fakeHistoryBackend{}
	svc, _ := newTestService(invoker, backend)

	view, err := svc.Generate(context.Background(), "user-1", topicRequest())
	require.NoError(t, err)

	assert.Equal(t, SourceGenerated, view.Source)
	assert.Equal(t, "canned summary", view.Result.Summary)
	assert.Equal(t, "entry-1", view.HistoryID)
	assert.Empty(t, view.HistoryError)
	assert.Equal(t, 1, invoker.generateCalls)

	require.Len(t, backend.appended, 1)
	entry := backend.appended[0]
	assert.Equal(t, studymaterial.InputMethodTopic, entry.InputType)
	assert.Equal(t, "Photosynthesis", entry.InputDetail)
	assert.Equal(t, studymaterial.PurposeRevision, entry.Purpose)
	assert.Equal(t, "canned summary", entry.Summary)
}

func TestGenerateSignedOutSkipsHistory(t *testing.T) {
	invoker := &fakeInvoker{}
	backend := &fakeHistoryBackend{}
	svc, _ := newTestService(invoker, backend)

	view, err := svc.Generate(context.Background(), "", topicRequest())
	require.NoError(t, err)

	assert.Empty(t, view.HistoryID)
	assert.Empty(t, view.HistoryError)
	assert.Empty(t, backend.appended)
}

func TestGenerateHistoryFailureKeepsResult(t *testing.T) {
	invoker := &fakeInvoker{}
	backend := &fakeHistoryBackend{appendErr: errors.New("permission denied")}
	svc, _ := newTestService(invoker, backend)

	view, err := svc.Generate(context.Background(), "user-1", topicRequest())
	require.NoError(t, err)

	assert.Equal(t, "canned summary", view.Result.Summary)
	assert.Equal(t, "failed to save to history", view.HistoryError)
	assert.Empty(t, view.HistoryID)
}

func TestGenerateValidationFailureSkipsInvoker(t *testing.T) {
	invoker := &fakeInvoker{}
	svc, _ := newTestService(invoker, &fakeHistoryBackend{})

	req := topicRequest()
	req.Topic = ""

	_, err := svc.Generate(context.Background(), "user-1", req)
	var vErr *studymaterial.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, invoker.generateCalls)
}

func TestGenerateInvokerFailure(t *testing.T) {
	invoker := &fakeInvoker{err: &studymaterial.NetworkError{Err: errors.New("refused")}}
	backend := &fakeHistoryBackend{}
	svc, _ := newTestService(invoker, backend)

	_, err := svc.Generate(context.Background(), "user-1", topicRequest())
	var netErr *studymaterial.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Empty(t, backend.appended)
}

func TestGenerateFromFileRecordsFilename(t *testing.T) {
	invoker := &fakeInvoker{}
	backend := &fakeHistoryBackend{}
	svc, _ := newTestService(invoker, backend)

	view, err := svc.GenerateFromFile(context.Background(), "user-1", &studymaterial.FileRequest{
		Filename:        "biology-notes.pdf",
		ContentType:     "application/pdf",
		Size:            128,
		Data:            []byte("%PDF"),
		Purpose:         studymaterial.PurposeExamPrep,
		DifficultyLevel: studymaterial.DifficultyAdvanced,
	})
	require.NoError(t, err)

	assert.Equal(t, SourceGenerated, view.Source)
	assert.Equal(t, 1, invoker.fileCalls)
	require.Len(t, backend.appended, 1)
	assert.Equal(t, studymaterial.InputMethodFile, backend.appended[0].InputType)
	assert.Equal(t, "biology-notes.pdf", backend.appended[0].InputDetail)
}

func TestResolvePriorityHistoryFirst(t *testing.T) {
	invoker := &fakeInvoker{}
	svc, sessions := newTestService(invoker, &fakeHistoryBackend{})

	require.NoError(t, sessions.Put("s1", session.SlotHistorySnapshot, &history.Entry{
		ID:          "h-1",
		InputType:   studymaterial.InputMethodTopic,
		InputDetail: "Photosynthesis",
		Summary:     "from history",
	}))
	require.NoError(t, sessions.Put("s1", session.SlotGeneratedResult, cannedResult()))
	require.NoError(t, svc.StagePending("s1", topicRequest()))

	view, err := svc.Resolve(context.Background(), "s1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, SourceHistory, view.Source)
	assert.Equal(t, "from history", view.Result.Summary)
	require.NotNil(t, view.Entry)
	assert.Equal(t, "h-1", view.Entry.ID)
	assert.Equal(t, 0, invoker.generateCalls)
}

func TestResolveCacheBeforePending(t *testing.T) {
	invoker := &fakeInvoker{}
	svc, sessions := newTestService(invoker, &fakeHistoryBackend{})

	require.NoError(t, sessions.Put("s1", session.SlotGeneratedResult, cannedResult()))
	require.NoError(t, svc.StagePending("s1", topicRequest()))

	view, err := svc.Resolve(context.Background(), "s1", "")
	require.NoError(t, err)

	assert.Equal(t, SourceCache, view.Source)
	assert.Equal(t, 0, invoker.generateCalls)

	// The cache slot was consumed; the pending submission is next in line.
	view, err = svc.Resolve(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, SourceGenerated, view.Source)
	assert.Equal(t, 1, invoker.generateCalls)
}

func TestResolvePendingInvokesGeneration(t *testing.T) {
	invoker := &fakeInvoker{}
	backend := &fakeHistoryBackend{}
	svc, _ := newTestService(invoker, backend)

	require.NoError(t, svc.StagePending("s1", topicRequest()))

	view, err := svc.Resolve(context.Background(), "s1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, SourceGenerated, view.Source)
	assert.Equal(t, 1, invoker.generateCalls)
	assert.Equal(t, "Photosynthesis", invoker.lastReq.Topic)
	// Resolving a pending submission records history like a direct call.
	require.Len(t, backend.appended, 1)
}

func TestResolveNoData(t *testing.T) {
	svc, _ := newTestService(&fakeInvoker{}, &fakeHistoryBackend{})

	_, err := svc.Resolve(context.Background(), "s1", "")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolveCorruptSlotSurfacesParseError(t *testing.T) {
	svc, sessions := newTestService(&fakeInvoker{}, &fakeHistoryBackend{})

	sessions.PutRaw("s1", session.SlotHistorySnapshot, []byte("{broken"))

	_, err := svc.Resolve(context.Background(), "s1", "")
	var parseErr *studymaterial.ParseError
	require.ErrorAs(t, err, &parseErr)

	// The bad value was consumed; the next resolve reports no data.
	_, err = svc.Resolve(context.Background(), "s1", "")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDirectGenerateDoesNotStageCache(t *testing.T) {
	invoker := &fakeInvoker{}
	svc, sessions := newTestService(invoker, &fakeHistoryBackend{})

	_, err := svc.Generate(context.Background(), "", topicRequest())
	require.NoError(t, err)

	assert.False(t, sessions.Peek("s1", session.SlotGeneratedResult))
}

func TestStageResultThenResolve(t *testing.T) {
	svc, _ := newTestService(&fakeInvoker{}, &fakeHistoryBackend{})

	require.NoError(t, svc.StageResult("s1", cannedResult()))

	view, err := svc.Resolve(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, view.Source)
	assert.Equal(t, "canned summary", view.Result.Summary)
}

func TestStagePendingValidates(t *testing.T) {
	svc, sessions := newTestService(&fakeInvoker{}, &fakeHistoryBackend{})

	req := topicRequest()
	req.DifficultyLevel = "impossible"

	err := svc.StagePending("s1", req)
	var vErr *studymaterial.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.False(t, sessions.Peek("s1", session.SlotPendingSubmission))
}
