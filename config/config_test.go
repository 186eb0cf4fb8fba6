package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CORS_ORIGINS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" || cfg.StoreDriver != StoreRedis || cfg.RedisAddr != "127.0.0.1:6379" || cfg.RedisDB != 8 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" || cfg.Debug {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("REDIS_DB", "nope")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, ,https://co.example.edu")
	t.Setenv("LOG_LEVEL", "DEBUG")
	cfg := FromEnv()
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("driver = %q", cfg.StoreDriver)
	}
	if cfg.RedisDB != 8 {
		t.Fatalf("invalid REDIS_DB should fall back, got %d", cfg.RedisDB)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://co.example.edu" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if !cfg.Debug {
		t.Fatal("LOG_LEVEL=DEBUG should enable debug")
	}
}
