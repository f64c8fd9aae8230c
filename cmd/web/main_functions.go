package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	prof "github.com/go-while/go-cpu-mem-profiler"
	"golang.org/x/term"
)

var Prof *prof.Profiler

// setupGin picks the gin mode and only colours the access log on a terminal
func setupGin(debug bool) {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		gin.ForceConsoleColor()
	} else {
		gin.DisableConsoleColor()
	}
}

// startProfiler serves pprof on addr in the background
func startProfiler(addr string) {
	Prof = prof.NewProf()
	go Prof.PprofWeb(addr)
	log.Printf("[WEB]: pprof listening on %s", addr)
}
