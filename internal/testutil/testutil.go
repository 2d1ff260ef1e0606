package testutil

import (
	"context"
	"hunt_backend/internal/model"
	"hunt_backend/pkg/database"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a fresh in-memory database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SetupTestRedis starts an in-process Redis and returns a client for it.
func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func CreateTestUser(t *testing.T, db *gorm.DB, firstName, lastName, town string) *model.User {
	t.Helper()

	user := &model.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     uuid.New().String() + "@example.com",
		Town:      town,
		Role:      model.Participant,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func CreateTestLocation(t *testing.T, db *gorm.DB, name, answer string) *model.Location {
	t.Helper()

	location := &model.Location{
		Name:     name,
		ImgSrc:   "/img/" + name + ".jpg",
		Question: "What is at " + name + "?",
		Answer:   answer,
		Radius:   130,
		Lat:      45.75,
		Lng:      21.22,
	}
	if err := db.Create(location).Error; err != nil {
		t.Fatalf("Failed to create test location: %v", err)
	}
	return location
}

// CreateTestAnswer inserts answer as given, filling ids and an unscored
// score when they are left empty.
func CreateTestAnswer(t *testing.T, db *gorm.DB, answer *model.AnswerRecord) *model.AnswerRecord {
	t.Helper()

	if answer.ParticipantID == "" {
		answer.ParticipantID = uuid.New().String()
	}
	if answer.LocationID == "" {
		answer.LocationID = uuid.New().String()
	}
	if answer.AcceptedAnswerText == "" {
		answer.AcceptedAnswerText = "Paris"
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	if err := db.Create(answer).Error; err != nil {
		t.Fatalf("Failed to create test answer: %v", err)
	}
	return answer
}

// ReloadAnswer reads the stored version of an answer.
func ReloadAnswer(t *testing.T, db *gorm.DB, id string) *model.AnswerRecord {
	t.Helper()

	var answer model.AnswerRecord
	if err := db.First(&answer, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload answer %s: %v", id, err)
	}
	return &answer
}

// EvaluatorCall records one invocation of FakeEvaluator.
type EvaluatorCall struct {
	SubmittedText string
	Variants      []string
	At            time.Time
}

// FakeEvaluator scores answers with Score, or fails with Err when set.
type FakeEvaluator struct {
	Score func(submittedText string, variants []string) int
	Err   error
	// Block, when set, is received from before every call returns.
	Block chan struct{}

	mu    sync.Mutex
	calls []EvaluatorCall
}

func (f *FakeEvaluator) Evaluate(ctx context.Context, submittedText string, variants []string) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, EvaluatorCall{SubmittedText: submittedText, Variants: variants, At: time.Now()})
	f.mu.Unlock()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.Err != nil {
		return 0, f.Err
	}
	if f.Score == nil {
		return 100, nil
	}
	return f.Score(submittedText, variants), nil
}

func (f *FakeEvaluator) Calls() []EvaluatorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EvaluatorCall(nil), f.calls...)
}

// StaticHuntState serves a fixed hunt state.
type StaticHuntState struct {
	State model.HuntState
	Err   error
}

func (s *StaticHuntState) Current(ctx context.Context) (model.HuntState, error) {
	return s.State, s.Err
}
