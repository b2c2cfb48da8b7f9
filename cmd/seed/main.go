package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
	"github.com/Top-g99/luxe-staycations-sub000/internal/database"
	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

func main() {
	triggersOut := flag.String("write-triggers", "", "write the default trigger rules as YAML to this path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	templates := services.NewTemplateService(db, cfg.Organization)
	n, err := templates.SeedDefaults(context.Background())
	if err != nil {
		log.Fatal("Failed to seed templates:", err)
	}
	fmt.Printf("✓ Seeded %d notification templates\n", n)

	if *triggersOut != "" {
		if err := writeTriggers(*triggersOut, services.DefaultTriggerRules()); err != nil {
			log.Fatal("Failed to write triggers file:", err)
		}
		fmt.Printf("✓ Wrote default trigger rules to %s\n", *triggersOut)
	}
}

func writeTriggers(path string, rules []models.TriggerRule) error {
	data, err := yaml.Marshal(struct {
		Triggers []models.TriggerRule `yaml:"triggers"`
	}{rules})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
