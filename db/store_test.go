package db

import (
	"testing"

	"coattainment-server-go/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedisService(t *testing.T) *RedisService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisService(client)
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"redis":  func(t *testing.T) Store { return newTestRedisService(t) },
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("empty", func(t *testing.T) { testEmptyStore(t, newStore(t)) })
			t.Run("roundtrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
			t.Run("replace", func(t *testing.T) { testReplace(t, newStore(t)) })
			t.Run("reset", func(t *testing.T) { testReset(t, newStore(t)) })
			t.Run("duplicate rolls", func(t *testing.T) { testDuplicateRolls(t, newStore(t)) })
		})
	}
}

func testEmptyStore(t *testing.T, s Store) {
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Students) != 0 || snap.Subject != nil || len(snap.Mapping) != 0 || len(snap.Marks) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func fill(t *testing.T, s Store) {
	t.Helper()
	if err := s.ReplaceStudents([]models.Student{{Roll: "R2", Name: "Bilal"}, {Roll: "R1", Name: "Asha"}}); err != nil {
		t.Fatalf("ReplaceStudents: %v", err)
	}
	if err := s.SaveSubject(models.SubjectDetails{SubjectName: "Networks", CourseID: "CS301", TotalCO: 3}); err != nil {
		t.Fatalf("SaveSubject: %v", err)
	}
	mapping := []models.QuestionMapping{
		{ExamType: "minor1", QuestionNumber: "1", CO: "CO1"},
		{ExamType: "final", QuestionNumber: "2a", CO: "CO3"},
	}
	if err := s.SaveMapping(mapping); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}
	if err := s.SaveMarks(models.Minor1, []models.MarkRecord{{"1": "8"}, {"1": "x"}}); err != nil {
		t.Fatalf("SaveMarks: %v", err)
	}
	if err := s.SaveMarks(models.Assignment, nil); err != nil {
		t.Fatalf("SaveMarks: %v", err)
	}
}

func testRoundTrip(t *testing.T, s Store) {
	fill(t, s)
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Students) != 2 || snap.Students[0].Roll != "R2" || snap.Students[1].Name != "Asha" {
		t.Fatalf("students not kept in order: %+v", snap.Students)
	}
	if snap.Subject == nil || snap.Subject.SubjectName != "Networks" || snap.Subject.TotalCO != 3 {
		t.Fatalf("unexpected subject %+v", snap.Subject)
	}
	if len(snap.Mapping) != 2 || snap.Mapping[1].QuestionNumber != "2a" || snap.Mapping[1].CO != "CO3" {
		t.Fatalf("unexpected mapping %+v", snap.Mapping)
	}
	minor1 := snap.Marks[models.Minor1]
	if len(minor1) != 2 || minor1[0]["1"] != "8" || minor1[1]["1"] != "x" {
		t.Fatalf("unexpected minor1 marks %+v", minor1)
	}
	if recs, ok := snap.Marks[models.Assignment]; !ok || len(recs) != 0 {
		t.Fatalf("empty assignment upload should be present and empty, got %v (%v)", recs, ok)
	}
	if _, ok := snap.Marks[models.Final]; ok {
		t.Fatal("final was never uploaded")
	}
}

func testReplace(t *testing.T, s Store) {
	fill(t, s)
	if err := s.ReplaceStudents([]models.Student{{Roll: "R9", Name: "Chen"}}); err != nil {
		t.Fatalf("ReplaceStudents: %v", err)
	}
	if err := s.SaveMarks(models.Minor1, []models.MarkRecord{{"1": "3"}}); err != nil {
		t.Fatalf("SaveMarks: %v", err)
	}
	students, err := s.Students()
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if len(students) != 1 || students[0].Roll != "R9" {
		t.Fatalf("roster should be replaced wholesale, got %+v", students)
	}
	recs, ok, err := s.Marks(models.Minor1)
	if err != nil || !ok || len(recs) != 1 || recs[0]["1"] != "3" {
		t.Fatalf("marks should be replaced wholesale, got %+v %v %v", recs, ok, err)
	}
}

func testReset(t *testing.T, s Store) {
	fill(t, s)
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	testEmptyStore(t, s)
}

func testDuplicateRolls(t *testing.T, s Store) {
	roster := []models.Student{{Roll: "R1", Name: "Asha"}, {Roll: "R1", Name: "Bilal"}}
	if err := s.ReplaceStudents(roster); err != nil {
		t.Fatalf("ReplaceStudents: %v", err)
	}
	students, err := s.Students()
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if len(students) != 2 || students[0].Name != "Asha" || students[1].Name != "Bilal" {
		t.Fatalf("each roster row should keep its own name, got %+v", students)
	}
}
