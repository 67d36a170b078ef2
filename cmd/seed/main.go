package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-physio-booking/config"
	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-physio-booking/internal/domain/repository"
	pginfra "github.com/oksasatya/go-physio-booking/internal/infrastructure/postgres"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
)

type seedDoctor struct {
	name, email, speciality, degree, experience string
	fees                                        int64
}

var doctors = []seedDoctor{
	{"Dr. Asha Rao", "asha.rao@physio.local", "Sports Physiotherapist", "MPT", "6 Years", 500},
	{"Dr. Vikram Shah", "vikram.shah@physio.local", "Orthopedic Physiotherapist", "BPT", "4 Years", 400},
	{"Dr. Meera Iyer", "meera.iyer@physio.local", "Neuro Physiotherapist", "MPT", "9 Years", 750},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	docs := pginfra.NewDoctorRepository(pool)

	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()

	for _, d := range doctors {
		doc := &entity.Doctor{
			ID:          uuid.NewString(),
			Name:        d.name,
			Email:       d.email,
			Password:    hash,
			Speciality:  d.speciality,
			Degree:      d.degree,
			Experience:  d.experience,
			About:       d.name + " treats " + d.speciality + " cases.",
			Available:   true,
			Fees:        d.fees,
			Address:     entity.Address{Line1: "12 Residency Road", Line2: "Bengaluru"},
			SlotsBooked: entity.SlotLedger{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := docs.Create(ctx, doc); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				fmt.Printf("doctor exists: %s\n", d.email)
				continue
			}
			log.Fatalf("failed to seed doctor %s: %v", d.email, err)
		}
		fmt.Printf("seeded doctor: id=%s email=%s password=%s\n", doc.ID, d.email, password)
	}

	patient := &entity.User{
		ID:         uuid.NewString(),
		Name:       "Demo Patient",
		Email:      "patient@physio.local",
		Password:   hash,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := users.Create(ctx, patient); err != nil {
		if !errors.Is(err, repo.ErrDuplicate) {
			log.Fatalf("failed to seed patient: %v", err)
		}
		fmt.Printf("patient exists: %s\n", patient.Email)
		return
	}
	fmt.Printf("seeded patient: id=%s email=%s password=%s\n", patient.ID, patient.Email, password)
}
