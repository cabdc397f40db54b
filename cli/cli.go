package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tagmount/cli/cmd"
	"github.com/ardnew/tagmount/library"
	"github.com/ardnew/tagmount/log"
	"github.com/ardnew/tagmount/pkg"
)

// CLI is the top-level command-line interface for tagmount.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Lib    []string `help:"Tag library file or name to load (default: every library on the search path)" name:"lib"     short:"l"`
	LibDir []string `help:"Prepend a directory to the tag library search path"                            name:"lib-dir" short:"L" type:"path"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Mount a component and print the rendered HTML"`
	Apply  cmd.Apply  `cmd:""                    help:"Mount a component and apply a sequence of data documents"`
	Plan   cmd.Plan   `cmd:""                    help:"Print the compiled plan of a component template"`
	Repl   cmd.Repl   `cmd:""                    help:"Edit the scope of a mounted component interactively"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the tagmount CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath + ".yaml",
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that parse errors are already reported
	// with the requested format and level.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx), configFilePath+".yaml", configFilePath+".yml"),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with flags that are not applied while
	// parsing, such as the time layout.
	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithLibraries(ctx, cli.libraries())

	return ktx.Run(ctx, &cli)
}

// libraries returns the tag libraries selected by the command line. The
// search path is made of the --lib-dir directories, the libraries directory
// under the configuration directory, and the directories listed in the
// environment variable TAGMOUNT_PATH, in that order.
func (c *CLI) libraries() *cmd.Libraries {
	env := os.Getenv(pkg.EnvPrefix() + "PATH")

	prefix := append(c.LibDir[:len(c.LibDir):len(c.LibDir)], configPath(baseLibrary))

	return &cmd.Libraries{
		Loader: library.New(
			library.WithSearchPath(env, prefix...),
			library.WithLogger(log.Default()),
		),
		Names: c.Lib,
	}
}

// configPath returns the path formed by joining the configuration directory
// with the given path elements.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

const (
	// baseConfig is the base name of the configuration file.
	baseConfig = "config"

	// baseLibrary is the name of the tag library directory under the
	// configuration directory.
	baseLibrary = "lib"

	defaultDirMode os.FileMode = 0o700
)
