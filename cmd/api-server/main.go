package main

import (
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/app"
)

func main() {
	// Initialize application
	application, err := app.Initialize("")
	if err != nil {
		panic(err)
	}

	// Start server
	app.StartServer(
		application.Config,
		application.Handlers,
		application.Services,
	)
}
