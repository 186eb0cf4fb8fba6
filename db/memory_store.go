package db

import (
	"sync"

	"coattainment-server-go/models"
)

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu       sync.RWMutex
	students []models.Student
	subject  *models.SubjectDetails
	mapping  []models.QuestionMapping
	marks    map[models.ExamType][]models.MarkRecord
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{marks: map[models.ExamType][]models.MarkRecord{}}
}

func (m *MemoryStore) ReplaceStudents(students []models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = append([]models.Student(nil), students...)
	return nil
}

func (m *MemoryStore) Students() ([]models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Student(nil), m.students...), nil
}

func (m *MemoryStore) SaveSubject(subject models.SubjectDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subject = &subject
	return nil
}

func (m *MemoryStore) Subject() (*models.SubjectDetails, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.subject == nil {
		return nil, nil
	}
	s := *m.subject
	return &s, nil
}

func (m *MemoryStore) SaveMapping(mapping []models.QuestionMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mapping = append([]models.QuestionMapping(nil), mapping...)
	return nil
}

func (m *MemoryStore) Mapping() ([]models.QuestionMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.QuestionMapping(nil), m.mapping...), nil
}

func (m *MemoryStore) SaveMarks(exam models.ExamType, records []models.MarkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]models.MarkRecord, len(records))
	for i, r := range records {
		cp[i] = copyRecord(r)
	}
	m.marks[exam] = cp
	return nil
}

func (m *MemoryStore) Marks(exam models.ExamType) ([]models.MarkRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, ok := m.marks[exam]
	if !ok {
		return nil, false, nil
	}
	cp := make([]models.MarkRecord, len(records))
	for i, r := range records {
		cp[i] = copyRecord(r)
	}
	return cp, true, nil
}

// Snapshot holds the read lock across all four inputs
func (m *MemoryStore) Snapshot() (models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := models.Snapshot{
		Students: append([]models.Student(nil), m.students...),
		Mapping:  append([]models.QuestionMapping(nil), m.mapping...),
		Marks:    make(map[models.ExamType][]models.MarkRecord, len(m.marks)),
	}
	if m.subject != nil {
		s := *m.subject
		snap.Subject = &s
	}
	for exam, records := range m.marks {
		cp := make([]models.MarkRecord, len(records))
		for i, r := range records {
			cp[i] = copyRecord(r)
		}
		snap.Marks[exam] = cp
	}
	return snap, nil
}

func (m *MemoryStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = nil
	m.subject = nil
	m.mapping = nil
	m.marks = map[models.ExamType][]models.MarkRecord{}
	return nil
}

func copyRecord(r models.MarkRecord) models.MarkRecord {
	cp := make(models.MarkRecord, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}
