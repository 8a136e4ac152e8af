package build2vs

import (
	"os"

	"github.com/kamrann/build2-vs/app"
	"github.com/kamrann/build2-vs/internal/base"
)

var LogBuild2VS = base.NewLogCategory("Build2VS")

/***************************************
 * Launch Command (program entry point)
 ***************************************/

func LaunchCommand(prefix string) error {
	base.LogTrace(LogBuild2VS, "%s %q", prefix, os.Args[1:])
	return app.WithCommandLine(prefix, os.Args)
}
