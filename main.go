package main

import (
	"log"

	"coattainment-server-go/attainment"
	"coattainment-server-go/config"
	"coattainment-server-go/db"
	"coattainment-server-go/handlers"
	"coattainment-server-go/models"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	reportExistingData(store)

	calc := &attainment.Calculator{Debug: cfg.Debug}
	apiHandler := handlers.NewAPIHandler(store, calc)
	router := handlers.NewRouter(apiHandler, cfg.CORSOrigins)

	log.Printf("Starting server on %s (store: %s)", cfg.HTTPAddr, cfg.StoreDriver)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

func openStore(cfg config.Config) (db.Store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return db.NewMemoryStore(), nil
	}
	client, err := db.InitializeRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	return db.NewRedisService(client), nil
}

// reportExistingData logs which inputs survive from an earlier run
func reportExistingData(store db.Store) {
	snap, err := store.Snapshot()
	if err != nil {
		log.Printf("Warning: could not inspect stored inputs: %v", err)
		return
	}
	subject := "none"
	if snap.Subject != nil {
		subject = snap.Subject.SubjectName
	}
	var exams []models.ExamType
	for _, exam := range models.ExamTypes {
		if _, ok := snap.Marks[exam]; ok {
			exams = append(exams, exam)
		}
	}
	log.Printf("Stored inputs: %d students, subject %q, %d mapping entries, marks for %v",
		len(snap.Students), subject, len(snap.Mapping), exams)
}
