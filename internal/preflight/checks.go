package preflight

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"schoolgenius/internal/config"
	"schoolgenius/internal/database"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before the server starts
type Checker struct {
	db  *database.DB
	cfg *config.Config
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB, cfg *config.Config) *Checker {
	return &Checker{db: db, cfg: cfg}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkCacheSchema(),
		c.checkAudioDir(),
		c.checkProvidersFile(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("\n📊 Pre-flight summary: %d passed, %d failed, %d warnings\n", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: "Database connection successful",
	}
}

// checkCacheSchema verifies the qa_cache table exists
func (c *Checker) checkCacheSchema() CheckResult {
	var count int
	err := c.db.QueryRow(`
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = 'qa_cache'
	`).Scan(&count)

	if err != nil {
		return CheckResult{
			Name:    "Cache Schema",
			Status:  "fail",
			Message: "Cannot inspect database schema",
			Error:   err,
		}
	}
	if count == 0 {
		return CheckResult{
			Name:    "Cache Schema",
			Status:  "fail",
			Message: "qa_cache table is missing (migrations did not run)",
		}
	}

	return CheckResult{
		Name:    "Cache Schema",
		Status:  "pass",
		Message: "qa_cache table present",
	}
}

// checkAudioDir verifies the audio asset directory exists and is writable
func (c *Checker) checkAudioDir() CheckResult {
	if err := os.MkdirAll(c.cfg.AudioDir, 0755); err != nil {
		return CheckResult{
			Name:    "Audio Directory",
			Status:  "fail",
			Message: fmt.Sprintf("Cannot create audio directory %s", c.cfg.AudioDir),
			Error:   err,
		}
	}

	probe := filepath.Join(c.cfg.AudioDir, ".preflight")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return CheckResult{
			Name:    "Audio Directory",
			Status:  "fail",
			Message: fmt.Sprintf("Audio directory %s is not writable", c.cfg.AudioDir),
			Error:   err,
		}
	}
	os.Remove(probe)

	return CheckResult{
		Name:    "Audio Directory",
		Status:  "pass",
		Message: fmt.Sprintf("Audio directory %s is writable", c.cfg.AudioDir),
	}
}

// checkProvidersFile verifies the providers file parses and has at least one
// enabled provider per chain. Empty chains are a warning, not a failure —
// the server can still serve cache hits.
func (c *Checker) checkProvidersFile() CheckResult {
	providersConfig, err := config.LoadProviders(c.cfg.ProvidersFile)
	if err != nil {
		return CheckResult{
			Name:    "Providers File",
			Status:  "fail",
			Message: fmt.Sprintf("Cannot load providers file %s", c.cfg.ProvidersFile),
			Error:   err,
		}
	}

	enabledText := 0
	for _, p := range providersConfig.Text {
		if p.Enabled {
			enabledText++
		}
	}
	enabledAudio := 0
	for _, p := range providersConfig.Audio {
		if p.Enabled {
			enabledAudio++
		}
	}

	if enabledText == 0 && enabledAudio == 0 {
		return CheckResult{
			Name:    "Providers File",
			Status:  "warning",
			Message: "No enabled providers - only cached content will be served",
		}
	}

	return CheckResult{
		Name:    "Providers File",
		Status:  "pass",
		Message: fmt.Sprintf("%d text, %d audio providers enabled", enabledText, enabledAudio),
	}
}
