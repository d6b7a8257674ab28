package cp3d

import (
	"log"
	"os"
)

// Logger receives warnings from the geometry and solver code. It is never written
// to from inside a solver iteration.
var Logger = log.New(os.Stderr, "cp3d: ", log.LstdFlags)

func SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(os.Stderr, "cp3d: ", log.LstdFlags)
	}
	Logger = logger
}
