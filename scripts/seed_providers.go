package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"piscineiro/internal/database"
	"piscineiro/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v2"
)

// providerSeed mirrors the provider records in providers.yaml. Working hours
// arrive in the legacy free-form string ("08:00 – 18:00") and are parsed at
// this boundary.
type providerSeed struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Gender       string           `yaml:"gender"`
	Age          int              `yaml:"age"`
	Phone        string           `yaml:"phone"`
	Email        string           `yaml:"email"`
	CPF          string           `yaml:"cpf"`
	CEP          string           `yaml:"cep"`
	Street       string           `yaml:"street"`
	Number       string           `yaml:"number"`
	District     string           `yaml:"district"`
	City         string           `yaml:"city"`
	State        string           `yaml:"state"`
	Photo        string           `yaml:"photo"`
	CitiesServed []string         `yaml:"cities_served"`
	Hours        string           `yaml:"hours"`
	Services     []models.Service `yaml:"services"`
}

type seedFile struct {
	Providers []providerSeed `yaml:"providers"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("providers", "configs/providers.yaml", "path to providers.yaml")
		dbPath   = flag.String("db", "./data/piscineiro.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read providers: %w", err)
	}
	var file seedFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse providers: %w", err)
	}
	if len(file.Providers) == 0 {
		return fmt.Errorf("no providers in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	skipped := 0
	for _, seed := range file.Providers {
		if seed.Name == "" {
			continue
		}

		hours, err := models.ParseWorkingHours(seed.Hours)
		if err != nil {
			return fmt.Errorf("provider %s: %w", seed.Name, err)
		}

		id := seed.ID
		if id == "" {
			id = uuid.NewString()
		}

		if _, err := db.GetProvider(ctx, id); err == nil {
			skipped++
			continue
		} else if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("get %s: %w", seed.Name, err)
		}

		p := &models.Provider{
			ID:           id,
			Name:         seed.Name,
			Gender:       seed.Gender,
			Age:          seed.Age,
			Phone:        seed.Phone,
			Email:        seed.Email,
			CPF:          seed.CPF,
			CEP:          seed.CEP,
			Street:       seed.Street,
			Number:       seed.Number,
			District:     seed.District,
			City:         seed.City,
			State:        seed.State,
			Photo:        seed.Photo,
			CitiesServed: seed.CitiesServed,
			Hours:        hours,
			Services:     seed.Services,
			IsActive:     true,
		}
		if err := db.CreateProvider(ctx, p); err != nil {
			return fmt.Errorf("create %s: %w", seed.Name, err)
		}
		created++
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}
