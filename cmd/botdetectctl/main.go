// Command botdetectctl drives the HID bot-detection filter core outside of
// firmware: it replays captured report streams through the same
// keyboard/mouse detectors and lockout controller a real device would run,
// and scaffolds configuration files for them.
package main

import (
	"os"
	"strings"

	"github.com/hidshield/botdetect/internal/config"
	"github.com/hidshield/botdetect/internal/configpaths"
	"github.com/hidshield/botdetect/internal/invariant"
	botlog "github.com/hidshield/botdetect/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(invariant.Violation); ok {
				os.Stderr.WriteString("fatal: " + v.Error() + "\n")
				os.Exit(1)
			}
			panic(r)
		}
	}()

	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("botdetectctl"),
		kong.Description("HID bot-detection filter core: replay captures and manage configuration."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := botlog.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var rawLogger botlog.RawLogger
	if cli.Log.RawFile != "" {
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
			rawLogger = botlog.NewRaw(nil)
		} else {
			rawLogger = botlog.NewRaw(f)
			closeFiles = append(closeFiles, f)
		}
	} else if cli.Log.Level == "trace" {
		rawLogger = botlog.NewRaw(os.Stdout)
	} else {
		rawLogger = botlog.NewRaw(nil)
	}

	ctx.Bind(logger, &cli)
	ctx.BindTo(rawLogger, (*botlog.RawLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("BOTDETECT_CONFIG"); v != "" {
		return v
	}
	return ""
}
