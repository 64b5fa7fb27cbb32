package socketio

import (
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

var l = stdr.New(log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile))

// SetLogger replaces the package-wide logger. Each Client takes its logger
// when NewClient builds it, so only Clients created afterwards use the new one.
func SetLogger(logger logr.Logger) {
	l = logger
}

func getLogger(name string) logr.Logger {
	return l.WithName(name)
}
