package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/amelia751/cloudly/internal/cloudlyservice"
)

func main() {
	if err := cloudlyservice.Run(); err != nil {
		log.Error().Err(err).Msg("cloudly-service exited with error")
		os.Exit(1)
	}
}
