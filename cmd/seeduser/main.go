// cmd/seeduser/main.go creates or resets the initial manager account.
// Usage: go run ./cmd/seeduser [username] [password]
package main

import (
	"errors"
	"os"

	"github.com/PedroSmaxY/hardware-store/internal/config"
	"github.com/PedroSmaxY/hardware-store/internal/infra"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username, password := "manager", "manager123"
	if len(os.Args) > 2 {
		username, password = os.Args[1], os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid password")
	}

	var emp model.Employee
	err = db.Where("username = ?", username).First(&emp).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		emp = model.Employee{Username: username, Name: "Store Manager", Role: model.RoleManager}
	case err != nil:
		log.Fatal().Err(err).Msg("lookup failed")
	}
	emp.PasswordHash = hash
	emp.Role = model.RoleManager
	emp.Active = true
	if err := db.Save(&emp).Error; err != nil {
		log.Fatal().Err(err).Msg("save failed")
	}
	log.Info().Str("username", username).Uint("id", emp.ID).Msg("manager account ready")
}
