package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/tidwall/redcon"
	"github.com/zerodha/logf"

	"github.com/notepack/notepack/pkg/archive"
)

var (
	// Version of the build. This is injected at build-time.
	buildString = "unknown"
)

type App struct {
	archive *archive.Archive
	lo      logf.Logger
}

func main() {
	// Initialise and load the config.
	ko, err := initConfig()
	if err != nil {
		// Logger is not initialised yet.
		panic(err.Error())
	}

	lo := initLogger(ko)
	lo.Info("booting notepack server", "version", buildString)

	ar, err := initArchive(ko)
	if err != nil {
		lo.Fatal("error opening archive", "error", err)
	}

	app := &App{
		archive: ar,
		lo:      lo,
	}

	mux := redcon.NewServeMux()
	mux.HandleFunc("ping", app.ping)
	mux.HandleFunc("quit", app.quit)
	mux.HandleFunc("put", app.put)
	mux.HandleFunc("get", app.get)
	mux.HandleFunc("del", app.del)
	mux.HandleFunc("pack", app.pack)
	mux.HandleFunc("unpack", app.unpack)
	mux.HandleFunc("keys", app.keys)
	mux.HandleFunc("len", app.length)

	srv := redcon.NewServer(ko.String("server.address"),
		mux.ServeRESP,
		func(conn redcon.Conn) bool {
			// use this function to accept or deny the connection.
			return true
		},
		func(conn redcon.Conn, err error) {
			// this is called when the connection has been closed
		},
	)

	// Close the listener once a shutdown signal arrives.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		lo.Info("shutting down")
		srv.Close()
	}()

	lo.Info("listening for connections", "address", ko.String("server.address"))
	if err := srv.ListenAndServe(); err != nil {
		lo.Fatal("error starting server", "error", err)
	}

	// Flush the note directory and release the directory lock.
	if err := app.archive.Shutdown(); err != nil {
		lo.Error("error shutting down archive", "error", err)
	}
}
