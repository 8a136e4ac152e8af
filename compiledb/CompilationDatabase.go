package compiledb

import (
	"io"

	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
)

/***************************************
 * Compilation Database
 ***************************************/

// https://clang.llvm.org/docs/JSONCompilationDatabase.html
type CompileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Output    string   `json:"output,omitempty"`
	Arguments []string `json:"arguments"`
}

type CompilationDatabase []CompileCommand

func (x *CompilationDatabase) Append(entries ...CompileCommandEntry) {
	for _, entry := range entries {
		if i, found := base.IndexIf(func(it CompileCommand) bool {
			return it.File == entry.SourceFile && it.Directory == entry.Directory
		}, *x...); found {
			base.LogVeryVerbose(LogCompileDb, "input file already present in compiledb: %v (%v)", entry.SourceFile, (*x)[i].Output)
			continue
		}

		cmd := CompileCommand{
			Directory: entry.Directory,
			File:      entry.SourceFile,
			Output:    outputOf(entry.CompilerOptions),
			Arguments: entry.Arguments,
		}
		base.LogTrace(LogCompileDb, "append %v to compiledb (%v)", cmd.File, cmd.Output)
		*x = append(*x, cmd)
	}
}

func outputOf(options []string) string {
	if i, ok := base.IndexOf("-o", options...); ok && i+1 < len(options) {
		return options[i+1]
	}
	return ""
}

func (x CompilationDatabase) Write(dst io.Writer) error {
	return base.JsonSerialize(x, dst, base.OptionJsonPrettyPrint(true))
}

func WriteCompilationDatabase(path string, db CompilationDatabase) error {
	base.LogVerbose(LogCompileDb, "write compilation database with %d commands to %q", len(db), path)
	return internal_io.SafeCreate(path, db.Write)
}
