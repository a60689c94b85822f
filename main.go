package main

import (
	"github.com/aronm-sonance/sonance-marketing-hub/config"
	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/routes"
	"github.com/aronm-sonance/sonance-marketing-hub/store"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
	"github.com/aronm-sonance/sonance-marketing-hub/workflow"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.Profile{},
		&models.Channel{},
		&models.ChannelMember{},
		&models.Platform{},
		&models.ContentType{},
		&models.Post{},
		&models.PostStatusLog{},
		&models.Notification{},
	)

	st := store.New(db)
	mailer := utils.NewMailer(cfg)
	engine := workflow.NewEngine(st, st, st, mailer, cfg.AppBaseURL, utils.Sugar)

	r := routes.SetupRouter(db, engine, mailer)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
