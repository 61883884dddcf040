package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	pkg "github.com/glazor-app/glazor-cli/pkg/internal"
	"github.com/glazor-app/glazor-cli/pkg/internal/api"
	"github.com/glazor-app/glazor-cli/pkg/internal/app"
	"github.com/glazor-app/glazor-cli/pkg/internal/services"
	"github.com/glazor-app/glazor-cli/pkg/internal/session"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString("  ____ _\n / ___| | __ _ _______  _ __\n| |  _| |/ _` |_  / _ \\| '__|\n| |_| | | (_| |/ / (_) | |\n \\____|_|\\__,_/___\\___/|_|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("Glazor"), pkg.AppVersion)
	fmt.Printf("The photo feed, in your terminal\n")
	color.HiBlack("=====================================================\n")

	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")
	viper.SetDefault("api.base_url", "http://localhost:3000")
	viper.SetDefault("session.path", "")
	viper.SetDefault("feed.auto_refresh", "")

	// Load settings; the defaults cover a missing file
	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("No settings file found, using defaults.")
	}

	// Resolve the session slot
	sessionPath := viper.GetString("session.path")
	if len(sessionPath) == 0 {
		var err error
		if sessionPath, err = session.DefaultPath(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when resolving the session path.")
		}
	}

	// Feed snapshot cache
	feedCache, err := services.NewFeedCache()
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when creating the feed cache.")
	}

	client := api.NewClient(viper.GetString("api.base_url"))
	terminal := app.NewTerminal(os.Stdout)
	controller := app.NewController(client, session.NewStore(sessionPath), terminal, feedCache)

	controller.Startup()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	if spec := viper.GetString("feed.auto_refresh"); len(spec) > 0 {
		if _, err := quartz.AddFunc(spec, func() {
			if controller.CurrentView() == app.ViewFeed {
				controller.ReloadFeed()
			}
		}); err != nil {
			log.Error().Err(err).Msg("An error occurred when scheduling the feed refresh.")
		}
	}
	quartz.Start()

	terminal.Run(controller, os.Stdin)

	quartz.Stop()
}
