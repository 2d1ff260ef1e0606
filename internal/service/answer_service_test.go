package service

import (
	"context"
	"encoding/json"
	"errors"
	"hunt_backend/internal/model"
	"hunt_backend/internal/repository"
	"hunt_backend/internal/testutil"
	"hunt_backend/internal/util"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ptr(s string) *string { return &s }

type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingScheduler) Enqueue(answerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, answerID)
	return true
}

func (r *recordingScheduler) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

var (
	runningHunt  = &testutil.StaticHuntState{State: model.HuntState{Phase: model.HuntRunning}}
	revealedHunt = &testutil.StaticHuntState{State: model.HuntState{Phase: model.HuntEnded, AnswersReady: true}}
)

func setupAnswerService(t *testing.T, scheduler EvaluationScheduler, hunt HuntStateProvider) (*AnswerService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewAnswerService(
		repository.NewAnswerRepository(db),
		repository.NewLocationRepository(db),
		hunt,
		scheduler,
		5*time.Minute,
	)
	return svc, db
}

func TestSubmitAnswerCreatesUnscoredRecord(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	location := testutil.CreateTestLocation(t, db, "Cathedral", "Paris;paris france")
	participant := uuid.New().String()

	answer, err := svc.SubmitAnswer(context.Background(), participant, SubmitAnswerRequest{
		LocationID:    location.ID,
		QuestionText:  "Which city?",
		SubmittedText: "Paris",
	})
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	stored := testutil.ReloadAnswer(t, db, answer.ID)
	if stored.AcceptedAnswerText != "Paris;paris france" {
		t.Errorf("Expected accepted answer snapshot, got %q", stored.AcceptedAnswerText)
	}
	if stored.EvaluationScore != model.UnscoredSentinel {
		t.Errorf("Expected unscored record, got %d", stored.EvaluationScore)
	}
	if stored.EditedOnce {
		t.Error("Expected editedOnce to be false")
	}
	if stored.ParticipantID != participant || stored.QuestionText != "Which city?" {
		t.Errorf("Unexpected stored record: %+v", stored)
	}
}

func TestSubmitAnswerTwiceConflicts(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	location := testutil.CreateTestLocation(t, db, "Bridge", "Danube")
	participant := uuid.New().String()
	ctx := context.Background()

	if _, err := svc.SubmitAnswer(ctx, participant, SubmitAnswerRequest{LocationID: location.ID, SubmittedText: "Danube"}); err != nil {
		t.Fatalf("First submit failed: %v", err)
	}
	_, err := svc.SubmitAnswer(ctx, participant, SubmitAnswerRequest{LocationID: location.ID, SubmittedText: "Rhine"})
	if !errors.Is(err, util.ErrAnswerExists) {
		t.Fatalf("Expected conflict, got %v", err)
	}

	var count int64
	db.Model(&model.AnswerRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
}

func TestSubmitAnswerRejectsBadInput(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	location := testutil.CreateTestLocation(t, db, "Park", "Oak")
	ctx := context.Background()

	tests := []struct {
		name        string
		participant string
		location    string
		want        error
	}{
		{"malformed participant", "42", location.ID, util.ErrInvalidInput},
		{"malformed location", uuid.New().String(), "not-an-id", util.ErrInvalidInput},
		{"unknown location", uuid.New().String(), uuid.New().String(), util.ErrLocationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitAnswer(ctx, tt.participant, SubmitAnswerRequest{LocationID: tt.location, SubmittedText: "Oak"})
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	var count int64
	db.Model(&model.AnswerRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no records after failures, got %d", count)
	}
}

func TestSubmitAnswerBlankStoresNoAnswer(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	location := testutil.CreateTestLocation(t, db, "Tower", "Clock")

	answer, err := svc.SubmitAnswer(context.Background(), uuid.New().String(), SubmitAnswerRequest{LocationID: location.ID})
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if answer.SubmittedText != model.NoAnswerText {
		t.Errorf("Expected no-answer sentinel, got %q", answer.SubmittedText)
	}
}

func TestEditAnswerTwice(t *testing.T) {
	scheduler := &recordingScheduler{}
	svc, db := setupAnswerService(t, scheduler, runningHunt)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Lyon", QuestionText: "Which city?", EvaluationScore: model.UnscoredSentinel})
	ctx := context.Background()

	edited, err := svc.EditAnswer(ctx, answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr("Paris")})
	if err != nil {
		t.Fatalf("First edit failed: %v", err)
	}
	if !edited.EditedOnce || edited.SubmittedText != "Paris" {
		t.Errorf("Unexpected edit result: %+v", edited)
	}

	_, err = svc.EditAnswer(ctx, answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr("Rome"), QuestionText: ptr("Changed?")})
	if !errors.Is(err, util.ErrAnswerAlreadyModified) {
		t.Fatalf("Expected AlreadyModified, got %v", err)
	}

	stored := testutil.ReloadAnswer(t, db, answer.ID)
	if stored.SubmittedText != "Paris" || stored.QuestionText != "Which city?" {
		t.Errorf("Second edit changed the record: %+v", stored)
	}
	if ids := scheduler.IDs(); len(ids) != 1 || ids[0] != answer.ID {
		t.Errorf("Expected one scheduled evaluation, got %v", ids)
	}
}

func TestEditAnswerAfterWindow(t *testing.T) {
	scheduler := &recordingScheduler{}
	svc, db := setupAnswerService(t, scheduler, runningHunt)
	created := time.Now().Add(-time.Hour)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{
		SubmittedText:   "Lyon",
		EvaluationScore: 30,
		UUIDBase:        model.UUIDBase{CreatedAt: created},
	})
	svc.Now = func() time.Time { return created.Add(6 * time.Minute) }

	_, err := svc.EditAnswer(context.Background(), answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr("Paris")})
	if !errors.Is(err, util.ErrEditWindowClosed) {
		t.Fatalf("Expected WindowClosed, got %v", err)
	}

	stored := testutil.ReloadAnswer(t, db, answer.ID)
	if stored.EditedOnce {
		t.Error("Expected editedOnce to stay false")
	}
	if stored.SubmittedText != "Lyon" || stored.EvaluationScore != 30 {
		t.Errorf("Expected record unchanged, got %+v", stored)
	}
	if len(scheduler.IDs()) != 0 {
		t.Error("Expected no evaluation to be scheduled")
	}
}

func TestEditAnswerInsideWindow(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	created := time.Now().Add(-time.Hour)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{
		SubmittedText:   "Lyon",
		EvaluationScore: model.UnscoredSentinel,
		UUIDBase:        model.UUIDBase{CreatedAt: created},
	})
	svc.Now = func() time.Time { return created.Add(4*time.Minute + 59*time.Second) }

	if _, err := svc.EditAnswer(context.Background(), answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr("Paris")}); err != nil {
		t.Fatalf("Expected edit inside window to succeed, got %v", err)
	}
}

func TestEditAnswerOfAnotherParticipant(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Lyon", EvaluationScore: model.UnscoredSentinel})

	_, err := svc.EditAnswer(context.Background(), uuid.New().String(), answer.ID, repository.AnswerEdit{SubmittedText: ptr("Paris")})
	if !errors.Is(err, util.ErrAnswerNotFound) {
		t.Fatalf("Expected NotFound, got %v", err)
	}
	if testutil.ReloadAnswer(t, db, answer.ID).EditedOnce {
		t.Error("Expected edit lock to remain available")
	}
}

func TestEditAnswerRejectsBadInput(t *testing.T) {
	svc, _ := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	ctx := context.Background()

	_, err := svc.EditAnswer(ctx, uuid.New().String(), "nope", repository.AnswerEdit{SubmittedText: ptr("x")})
	if !errors.Is(err, util.ErrInvalidInput) {
		t.Errorf("Expected InvalidInput for malformed id, got %v", err)
	}
	_, err = svc.EditAnswer(ctx, uuid.New().String(), uuid.New().String(), repository.AnswerEdit{})
	if !errors.Is(err, util.ErrInvalidInput) {
		t.Errorf("Expected InvalidInput for empty edit, got %v", err)
	}
	_, err = svc.EditAnswer(ctx, uuid.New().String(), uuid.New().String(), repository.AnswerEdit{SubmittedText: ptr("x")})
	if !errors.Is(err, util.ErrAnswerNotFound) {
		t.Errorf("Expected NotFound for missing answer, got %v", err)
	}
}

func TestEditAnswerConcurrentAttempts(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Lyon", EvaluationScore: model.UnscoredSentinel})

	texts := []string{"Paris", "Rome"}
	errs := make([]error, len(texts))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.EditAnswer(context.Background(), answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr(text)})
		}(i, text)
	}
	close(start)
	wg.Wait()

	successes, conflicts := 0, 0
	winner := ""
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
			winner = texts[i]
		case errors.Is(err, util.ErrAnswerAlreadyModified):
			conflicts++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("Expected one success and one AlreadyModified, got %d/%d", successes, conflicts)
	}
	if stored := testutil.ReloadAnswer(t, db, answer.ID); stored.SubmittedText != winner {
		t.Errorf("Expected stored text %q, got %q", winner, stored.SubmittedText)
	}
}

func TestEditThenEvaluateDerivesCorrectness(t *testing.T) {
	tests := []struct {
		score   int
		correct bool
	}{
		{92, true},
		{80, true},
		{79, false},
		{0, false},
	}

	for _, tt := range tests {
		svc, db := setupAnswerService(t, nil, runningHunt)
		evaluator := &testutil.FakeEvaluator{Score: func(string, []string) int { return tt.score }}
		queue := NewEvaluationQueue(NewScorer(svc.AnswerRepo, evaluator), 1, 8, 1, 0)
		queue.Start(context.Background())
		svc.Scheduler = queue

		answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Lyon", EvaluationScore: model.UnscoredSentinel})
		if _, err := svc.EditAnswer(context.Background(), answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr("Paris")}); err != nil {
			t.Fatalf("EditAnswer failed: %v", err)
		}
		queue.Stop(context.Background())

		stored := testutil.ReloadAnswer(t, db, answer.ID)
		if stored.EvaluationScore != tt.score {
			t.Errorf("Expected score %d, got %d", tt.score, stored.EvaluationScore)
		}
		if stored.IsCorrectFinalEvaluation != tt.correct {
			t.Errorf("Score %d: expected correct=%v, got %v", tt.score, tt.correct, stored.IsCorrectFinalEvaluation)
		}
		calls := evaluator.Calls()
		if len(calls) != 1 || calls[0].SubmittedText != "Paris" {
			t.Errorf("Expected one evaluator call for Paris, got %+v", calls)
		}
	}
}

func TestEditSucceedsWhenEvaluatorFails(t *testing.T) {
	svc, db := setupAnswerService(t, nil, runningHunt)
	evaluator := &testutil.FakeEvaluator{Err: util.ErrEvaluatorUnavailable}
	queue := NewEvaluationQueue(NewScorer(svc.AnswerRepo, evaluator), 1, 8, 2, 0)
	queue.Start(context.Background())
	svc.Scheduler = queue

	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Lyon", EvaluationScore: 45})
	if _, err := svc.EditAnswer(context.Background(), answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr("Paris")}); err != nil {
		t.Fatalf("Expected edit to succeed despite evaluator failure, got %v", err)
	}
	queue.Stop(context.Background())

	stored := testutil.ReloadAnswer(t, db, answer.ID)
	if stored.SubmittedText != "Paris" || !stored.EditedOnce {
		t.Errorf("Expected edit to persist, got %+v", stored)
	}
	if stored.EvaluationScore != model.UnscoredSentinel {
		t.Errorf("Expected record left unscored, got %d", stored.EvaluationScore)
	}
	if got := len(evaluator.Calls()); got != 2 {
		t.Errorf("Expected 2 attempts, got %d", got)
	}
}

func TestParseAnswerEdit(t *testing.T) {
	tests := []struct {
		name         string
		fields       map[string]interface{}
		wantErr      bool
		wantAnswer   *string
		wantQuestion *string
	}{
		{"answer alias", map[string]interface{}{"answer": "Paris"}, false, ptr("Paris"), nil},
		{"full names", map[string]interface{}{"submittedText": "Paris", "questionText": "Which city?"}, false, ptr("Paris"), ptr("Which city?")},
		{"question alias", map[string]interface{}{"question": "Where?"}, false, nil, ptr("Where?")},
		{"empty", map[string]interface{}{}, true, nil, nil},
		{"disallowed field", map[string]interface{}{"evaluationScore": "100"}, true, nil, nil},
		{"allowed with disallowed", map[string]interface{}{"answer": "Paris", "editedOnce": false}, true, nil, nil},
		{"non-string value", map[string]interface{}{"answer": 12}, true, nil, nil},
		{"duplicate alias", map[string]interface{}{"answer": "a", "submittedText": "b"}, true, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, err := ParseAnswerEdit(tt.fields)
			if tt.wantErr {
				if !errors.Is(err, util.ErrInvalidInput) {
					t.Fatalf("Expected InvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !equalPtr(edit.SubmittedText, tt.wantAnswer) || !equalPtr(edit.QuestionText, tt.wantQuestion) {
				t.Errorf("Unexpected edit: %+v", edit)
			}
		})
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestListOwnAnswersHidesGradingUntilReveal(t *testing.T) {
	hunt := &testutil.StaticHuntState{State: model.HuntState{Phase: model.HuntRunning}}
	svc, db := setupAnswerService(t, &recordingScheduler{}, hunt)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Paris", EvaluationScore: 92, IsCorrectFinalEvaluation: true})
	testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Berlin", EvaluationScore: 10})

	views, err := svc.ListOwnAnswers(context.Background(), answer.ParticipantID)
	if err != nil {
		t.Fatalf("ListOwnAnswers failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("Expected only own answer, got %d", len(views))
	}
	body, _ := json.Marshal(views[0])
	var hidden map[string]interface{}
	json.Unmarshal(body, &hidden)
	if hidden["submittedText"] != "Paris" {
		t.Errorf("Expected submitted text, got %v", hidden["submittedText"])
	}
	for _, key := range []string{"evaluationScore", "acceptedAnswerText", "isCorrectFinalEvaluation"} {
		if _, ok := hidden[key]; ok {
			t.Errorf("Expected %s to be hidden before reveal", key)
		}
	}

	hunt.State = model.HuntState{Phase: model.HuntEnded, AnswersReady: true}
	views, err = svc.ListOwnAnswers(context.Background(), answer.ParticipantID)
	if err != nil {
		t.Fatalf("ListOwnAnswers failed: %v", err)
	}
	if views[0].EvaluationScore == nil || *views[0].EvaluationScore != 92 {
		t.Errorf("Expected score 92 after reveal, got %v", views[0].EvaluationScore)
	}
	if views[0].AcceptedAnswerText == nil || *views[0].AcceptedAnswerText != "Paris" {
		t.Errorf("Expected accepted answer after reveal, got %v", views[0].AcceptedAnswerText)
	}

	stored := testutil.ReloadAnswer(t, db, answer.ID)
	if stored.EvaluationScore != 92 {
		t.Error("Projection must not modify stored records")
	}
}

func TestHuntStateFailureHidesResults(t *testing.T) {
	hunt := &testutil.StaticHuntState{
		State: model.HuntState{Phase: model.HuntEnded, AnswersReady: true},
		Err:   errors.New("redis down"),
	}
	svc, db := setupAnswerService(t, &recordingScheduler{}, hunt)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Paris", EvaluationScore: 92, IsCorrectFinalEvaluation: true})

	view, err := svc.GetOwnAnswerForLocation(context.Background(), answer.ParticipantID, answer.LocationID)
	if err != nil {
		t.Fatalf("GetOwnAnswerForLocation failed: %v", err)
	}
	if view.EvaluationScore != nil {
		t.Error("Expected results hidden when hunt state is unavailable")
	}
}

func TestGetOwnAnswerForLocationNotFound(t *testing.T) {
	svc, _ := setupAnswerService(t, &recordingScheduler{}, runningHunt)

	_, err := svc.GetOwnAnswerForLocation(context.Background(), uuid.New().String(), uuid.New().String())
	if !errors.Is(err, util.ErrAnswerNotFound) {
		t.Fatalf("Expected NotFound, got %v", err)
	}
}

func TestStatsHidesCorrectCountUntilReveal(t *testing.T) {
	hunt := &testutil.StaticHuntState{State: model.HuntState{Phase: model.HuntEnded}}
	svc, db := setupAnswerService(t, &recordingScheduler{}, hunt)
	participant := uuid.New().String()
	testutil.CreateTestAnswer(t, db, &model.AnswerRecord{ParticipantID: participant, SubmittedText: "a", EvaluationScore: 90, IsCorrectFinalEvaluation: true})
	testutil.CreateTestAnswer(t, db, &model.AnswerRecord{ParticipantID: participant, SubmittedText: "b", EvaluationScore: 20})

	stats, err := svc.Stats(context.Background(), participant)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.NumberOfAnswers != 2 || stats.NumberOfCorrectAnswers != nil {
		t.Errorf("Expected 2 answers and hidden correct count, got %+v", stats)
	}

	hunt.State.AnswersReady = true
	stats, err = svc.Stats(context.Background(), participant)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.NumberOfCorrectAnswers == nil || *stats.NumberOfCorrectAnswers != 1 {
		t.Errorf("Expected 1 correct answer, got %v", stats.NumberOfCorrectAnswers)
	}
}

func TestSetValidityKeepsEditLock(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	answer := testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "Lyon", EvaluationScore: 70})

	updated, err := svc.SetValidity(context.Background(), answer.ID, true)
	if err != nil {
		t.Fatalf("SetValidity failed: %v", err)
	}
	if !updated.ManuallyValidated {
		t.Error("Expected manuallyValidated to be set")
	}

	stored := testutil.ReloadAnswer(t, db, answer.ID)
	if stored.EditedOnce || stored.EvaluationScore != 70 {
		t.Errorf("Override must not touch edit lock or score, got %+v", stored)
	}
	if _, err := svc.EditAnswer(context.Background(), answer.ParticipantID, answer.ID, repository.AnswerEdit{SubmittedText: ptr("Paris")}); err != nil {
		t.Errorf("Expected edit still available after override, got %v", err)
	}
}

func TestListByLocationReturnsFullRecords(t *testing.T) {
	svc, db := setupAnswerService(t, &recordingScheduler{}, runningHunt)
	location := uuid.New().String()
	testutil.CreateTestAnswer(t, db, &model.AnswerRecord{LocationID: location, SubmittedText: "a", EvaluationScore: 65})
	testutil.CreateTestAnswer(t, db, &model.AnswerRecord{LocationID: location, SubmittedText: "b", EvaluationScore: 95})
	testutil.CreateTestAnswer(t, db, &model.AnswerRecord{SubmittedText: "c", EvaluationScore: 95})

	answers, err := svc.ListByLocation(context.Background(), location)
	if err != nil {
		t.Fatalf("ListByLocation failed: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("Expected 2 answers, got %d", len(answers))
	}
	if answers[0].EvaluationScore != 65 || answers[0].AcceptedAnswerText == "" {
		t.Errorf("Expected unprojected record, got %+v", answers[0])
	}
}
