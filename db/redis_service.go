package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"coattainment-server-go/models"
	"github.com/go-redis/redis/v8"
)

const (
	studentsKey = "students"         // List: JSON encoded students in upload order
	subjectKey  = "subject"          // Hash: subject details
	mappingKey  = "question_mapping" // String: JSON encoded mapping list
	examsKey    = "marks:exams"      // Set: exam types that have an uploaded table
	marksPrefix = "marks:"           // List prefix: marks:{exam} -> JSON encoded rows
)

// RedisService stores submissions in Redis
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context // Base context
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
	}
}

// Helper to generate the marks list key of an exam
func getMarksKey(exam models.ExamType) string {
	return marksPrefix + string(exam)
}

// --- Student Operations ---

// ReplaceStudents swaps the stored roster for students in one transaction
func (s *RedisService) ReplaceStudents(students []models.Student) error {
	rows := make([]interface{}, 0, len(students))
	for _, st := range students {
		raw, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to encode student %s: %w", st.Roll, err)
		}
		rows = append(rows, raw)
	}

	pipe := s.Client.TxPipeline()
	pipe.Del(s.Ctx, studentsKey)
	if len(rows) > 0 {
		pipe.RPush(s.Ctx, studentsKey, rows...)
	}
	if _, err := pipe.Exec(s.Ctx); err != nil {
		log.Printf("Error replacing roster: %v", err)
		return fmt.Errorf("failed to store students in Redis: %w", err)
	}
	log.Printf("Stored roster of %d students", len(students))
	return nil
}

// Students returns the roster in upload order
func (s *RedisService) Students() ([]models.Student, error) {
	rows, err := s.Client.LRange(s.Ctx, studentsKey, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Student{}, nil
		}
		return nil, fmt.Errorf("failed to get roster from Redis: %w", err)
	}

	students := make([]models.Student, 0, len(rows))
	for i, raw := range rows {
		var st models.Student
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("failed to decode roster entry %d: %w", i+1, err)
		}
		students = append(students, st)
	}
	return students, nil
}

// --- Subject Operations ---

// SaveSubject replaces the stored subject details
func (s *RedisService) SaveSubject(subject models.SubjectDetails) error {
	err := s.Client.HSet(s.Ctx, subjectKey, map[string]interface{}{
		"subject_name": subject.SubjectName,
		"course_id":    subject.CourseID,
		"total_co":     int(subject.TotalCO),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to store subject details in Redis: %w", err)
	}
	return nil
}

// Subject returns nil, nil when nothing was submitted
func (s *RedisService) Subject() (*models.SubjectDetails, error) {
	data, err := s.Client.HGetAll(s.Ctx, subjectKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subject details from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	subject := &models.SubjectDetails{
		SubjectName: data["subject_name"],
		CourseID:    data["course_id"],
	}
	if err := json.Unmarshal([]byte(data["total_co"]), &subject.TotalCO); err != nil {
		log.Printf("Stored total_co %q is not a number: %v", data["total_co"], err)
	}
	return subject, nil
}

// --- Mapping Operations ---

// SaveMapping replaces the stored question mapping
func (s *RedisService) SaveMapping(mapping []models.QuestionMapping) error {
	raw, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode question mapping: %w", err)
	}
	if err := s.Client.Set(s.Ctx, mappingKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to store question mapping in Redis: %w", err)
	}
	return nil
}

// Mapping returns the stored question mapping, empty when none was submitted
func (s *RedisService) Mapping() ([]models.QuestionMapping, error) {
	raw, err := s.Client.Get(s.Ctx, mappingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.QuestionMapping{}, nil
		}
		return nil, fmt.Errorf("failed to get question mapping from Redis: %w", err)
	}
	var mapping []models.QuestionMapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("failed to decode stored question mapping: %w", err)
	}
	return mapping, nil
}

// --- Marks Operations ---

// SaveMarks replaces the mark table of one exam
func (s *RedisService) SaveMarks(exam models.ExamType, records []models.MarkRecord) error {
	rows := make([]interface{}, 0, len(records))
	for i, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s row %d: %w", exam, i+1, err)
		}
		rows = append(rows, raw)
	}

	key := getMarksKey(exam)
	pipe := s.Client.TxPipeline()
	pipe.Del(s.Ctx, key)
	if len(rows) > 0 {
		pipe.RPush(s.Ctx, key, rows...)
	}
	pipe.SAdd(s.Ctx, examsKey, string(exam))
	if _, err := pipe.Exec(s.Ctx); err != nil {
		log.Printf("Error storing %s marks: %v", exam, err)
		return fmt.Errorf("failed to store %s marks in Redis: %w", exam, err)
	}
	log.Printf("Stored %d %s mark rows", len(records), exam)
	return nil
}

// Marks returns the table of exam in upload order
func (s *RedisService) Marks(exam models.ExamType) ([]models.MarkRecord, bool, error) {
	exists, err := s.Client.SIsMember(s.Ctx, examsKey, string(exam)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check %s marks: %w", exam, err)
	}
	if !exists {
		return nil, false, nil
	}

	rows, err := s.Client.LRange(s.Ctx, getMarksKey(exam), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("failed to get %s marks from Redis: %w", exam, err)
	}
	records := make([]models.MarkRecord, 0, len(rows))
	for i, raw := range rows {
		var rec models.MarkRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, false, fmt.Errorf("failed to decode %s row %d: %w", exam, i+1, err)
		}
		records = append(records, rec)
	}
	return records, true, nil
}

// Snapshot reads the four inputs one after another
func (s *RedisService) Snapshot() (models.Snapshot, error) {
	return snapshotOf(s)
}

// Reset deletes every key owned by the service
func (s *RedisService) Reset() error {
	keys := []string{studentsKey, subjectKey, mappingKey, examsKey}
	for _, exam := range models.ExamTypes {
		keys = append(keys, getMarksKey(exam))
	}
	if err := s.Client.Del(s.Ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset stored inputs: %w", err)
	}
	return nil
}

// --- Utility ---

// InitializeRedisClient creates a Redis client and checks the connection
func InitializeRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}

	log.Printf("Successfully connected to Redis %s DB %d", addr, db)
	return rdb, nil
}
