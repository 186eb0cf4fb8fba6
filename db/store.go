package db

import (
	"coattainment-server-go/models"
)

// Store keeps the latest submission of each input. Every save replaces the
// previous value wholesale.
type Store interface {
	ReplaceStudents(students []models.Student) error
	Students() ([]models.Student, error)
	SaveSubject(subject models.SubjectDetails) error
	// Subject returns nil, nil when no subject details were submitted
	Subject() (*models.SubjectDetails, error)
	SaveMapping(mapping []models.QuestionMapping) error
	Mapping() ([]models.QuestionMapping, error)
	SaveMarks(exam models.ExamType, records []models.MarkRecord) error
	// Marks reports ok=false when no table was uploaded for exam
	Marks(exam models.ExamType) (records []models.MarkRecord, ok bool, err error)
	// Snapshot reads all four inputs together
	Snapshot() (models.Snapshot, error)
	// Reset drops every stored input
	Reset() error
}

// snapshotOf assembles a Snapshot through the Store's own accessors
func snapshotOf(s Store) (models.Snapshot, error) {
	var snap models.Snapshot
	var err error
	if snap.Students, err = s.Students(); err != nil {
		return snap, err
	}
	if snap.Subject, err = s.Subject(); err != nil {
		return snap, err
	}
	if snap.Mapping, err = s.Mapping(); err != nil {
		return snap, err
	}
	snap.Marks = make(map[models.ExamType][]models.MarkRecord)
	for _, exam := range models.ExamTypes {
		records, ok, err := s.Marks(exam)
		if err != nil {
			return snap, err
		}
		if ok {
			snap.Marks[exam] = records
		}
	}
	return snap, nil
}
