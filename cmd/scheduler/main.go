package main

import (
	"context"
	"flag"
	"os"

	"github.com/planora/scheduler/internal/pkg/logger"
	"github.com/planora/scheduler/internal/server"
)

func main() {
	repair := flag.Bool("repair", false, "flatten nested student enrollment lists and exit")
	flag.Parse()

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if *repair {
		fixed, err := srv.RepairStudentEnrollments(context.Background())
		srv.Close()
		if err != nil {
			logger.Error().Err(err).Msg("Enrollment repair failed")
			os.Exit(1)
		}
		logger.Info().Int("documents", fixed).Msg("Enrollment repair complete")
		os.Exit(0)
	}

	// Run the server (this blocks until shutdown signal)
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
	os.Exit(0)
}
