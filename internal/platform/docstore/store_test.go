package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

type level string

type row struct {
	TestID      int    `json:"testId" bson:"testId"`
	QuestionNum int    `json:"question_num" bson:"question_num"`
	Level       level  `json:"level" bson:"level"`
	Answer      string `json:"answer" bson:"answer"`
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	sqliteStore, err := Open(ctx, logger.Nop(), Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "docs.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close(ctx) })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestStoreFindWithTypedFilters(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, lv := range []level{"low", "high", "low"} {
				if err := s.InsertOne(ctx, "answers", row{TestID: 1, QuestionNum: i + 1, Level: lv, Answer: "a"}); err != nil {
					t.Fatalf("insert: %v", err)
				}
			}
			if err := s.InsertOne(ctx, "answers", row{TestID: 2, QuestionNum: 1, Level: "low"}); err != nil {
				t.Fatalf("insert: %v", err)
			}

			var got []row
			if err := s.Find(ctx, "answers", Filter{"testId": int64(1), "level": level("low")}, &got); err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(got) != 2 || got[0].QuestionNum != 1 || got[1].QuestionNum != 3 {
				t.Fatalf("find: want question 1 and 3 got=%+v", got)
			}

			n, err := s.Count(ctx, "answers", Filter{"testId": 1})
			if err != nil || n != 3 {
				t.Fatalf("count: want=3 got=%d err=%v", n, err)
			}

			var none []row
			if err := s.Find(ctx, "other", nil, &none); err != nil || len(none) != 0 {
				t.Fatalf("find empty collection: got=%v err=%v", none, err)
			}
		})
	}
}

func TestStoreProjection(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.InsertOne(ctx, "answers", row{TestID: 1, QuestionNum: 4, Level: "low", Answer: "text"})
			var got []row
			if err := s.Find(ctx, "answers", Filter{"testId": 1}, &got, WithFields("question_num")); err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(got) != 1 || got[0].QuestionNum != 4 || got[0].Answer != "" || got[0].TestID != 0 {
				t.Fatalf("projection: got=%+v", got)
			}
		})
	}
}

func TestStoreFindOneMissIsNotAnError(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var r row
			ok, err := s.FindOne(ctx, "answers", Filter{"testId": 99}, &r)
			if err != nil || ok {
				t.Fatalf("find_one miss: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStoreUpsertAndUpdate(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := Filter{"testId": 1, "question_num": 2}
			inserted, err := s.UpsertOne(ctx, "answers", key, row{TestID: 1, QuestionNum: 2, Answer: "first"})
			if err != nil || !inserted {
				t.Fatalf("upsert insert: inserted=%v err=%v", inserted, err)
			}
			inserted, err = s.UpsertOne(ctx, "answers", key, map[string]any{"answer": "second"})
			if err != nil || inserted {
				t.Fatalf("upsert update: inserted=%v err=%v", inserted, err)
			}

			var r row
			ok, err := s.FindOne(ctx, "answers", key, &r)
			if err != nil || !ok {
				t.Fatalf("find_one: ok=%v err=%v", ok, err)
			}
			if r.Answer != "second" || r.QuestionNum != 2 {
				t.Fatalf("after upsert: got=%+v", r)
			}
			if n, _ := s.Count(ctx, "answers", nil); n != 1 {
				t.Fatalf("count after upserts: want=1 got=%d", n)
			}

			matched, err := s.UpdateOne(ctx, "answers", Filter{"testId": 5}, map[string]any{"answer": "x"})
			if err != nil || matched {
				t.Fatalf("update miss: matched=%v err=%v", matched, err)
			}
			matched, err = s.UpdateOne(ctx, "answers", key, map[string]any{"answer": "third"})
			if err != nil || !matched {
				t.Fatalf("update hit: matched=%v err=%v", matched, err)
			}
			_, _ = s.FindOne(ctx, "answers", key, &r)
			if r.Answer != "third" {
				t.Fatalf("after update: want=third got=%q", r.Answer)
			}
		})
	}
}

func TestStoreUpdateOneFiltersOnReadValue(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := Filter{"testId": 1, "question_num": 1}
			if _, err := s.UpsertOne(ctx, "models", key, map[string]any{"status": "pending"}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			stale := Filter{"testId": 1, "question_num": 1, "status": "pending"}
			if ok, err := s.UpdateOne(ctx, "models", stale, map[string]any{"status": "succeeded"}); err != nil || !ok {
				t.Fatalf("first write: matched=%v err=%v", ok, err)
			}
			if ok, err := s.UpdateOne(ctx, "models", stale, map[string]any{"status": "running"}); err != nil || ok {
				t.Fatalf("write on stale status: want matched=false got matched=%v err=%v", ok, err)
			}
			var got map[string]any
			_, _ = s.FindOne(ctx, "models", key, &got)
			if got["status"] != "succeeded" {
				t.Fatalf("status: want=succeeded got=%v", got["status"])
			}
		})
	}
}

func TestMemoryStoreConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Filter{"testId": 1, "question_num": 1}
	if _, err := s.UpsertOne(ctx, "answers", key, row{TestID: 1, QuestionNum: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := s.UpsertOne(ctx, "answers", key, map[string]any{"answer": fmt.Sprintf("w%d-%d", i, j)}); err != nil {
					errs <- err
					return
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				var r row
				if _, err := s.FindOne(ctx, "answers", key, &r); err != nil {
					errs <- err
					return
				}
				var all []row
				if err := s.Find(ctx, "answers", nil, &all); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent access: %v", err)
	}
}

func TestFindRejectsNonSliceOut(t *testing.T) {
	var r row
	if err := NewMemoryStore().Find(context.Background(), "answers", nil, &r); err == nil {
		t.Fatalf("expected error for non-slice out")
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Close(ctx)
	if err := s.InsertOne(ctx, "x", row{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("insert after close: want=ErrClosed got=%v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("ping after close: want=ErrClosed got=%v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), logger.Nop(), Config{Driver: "cassandra"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
