// Package config defines the botdetectctl CLI surface: every compile-time
// parameter named in spec §6 exposed as a flag/env-var/config-file tunable
// via github.com/alecthomas/kong, plus the replay and config-template
// subcommands.
package config

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/hidshield/botdetect/internal/configpaths"
	botlog "github.com/hidshield/botdetect/internal/log"
	"github.com/hidshield/botdetect/keyboard"
	"github.com/hidshield/botdetect/led"
	"github.com/hidshield/botdetect/lockout"
	"github.com/hidshield/botdetect/mouse"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// LogOptions exposes the CLI's logging tunables.
type LogOptions struct {
	Level   string `help:"Log level." enum:"trace,debug,info,warn,error" default:"info" env:"BOTDETECT_LOG_LEVEL"`
	File    string `help:"Also write logs to this file; console logs then all go to stderr." env:"BOTDETECT_LOG_FILE"`
	RawFile string `help:"Hex-dump every processed HID report to this file." env:"BOTDETECT_LOG_RAW_FILE"`
}

// KeyboardOptions exposes the C4 keyboard classifier's compile-time
// parameters (spec §6) as runtime tunables.
type KeyboardOptions struct {
	FastBinWidthMs      uint32 `help:"Fast histogram bin width in ms." default:"8" env:"BOTDETECT_KEYBOARD_FAST_BIN_WIDTH_MS"`
	FastBins            int    `help:"Number of fast histogram bins." default:"8" env:"BOTDETECT_KEYBOARD_FAST_BINS"`
	SlowBinWidthMs      uint32 `help:"Slow histogram bin width in ms." default:"32" env:"BOTDETECT_KEYBOARD_SLOW_BIN_WIDTH_MS"`
	SlowBins            int    `help:"Number of slow histogram bins." default:"8" env:"BOTDETECT_KEYBOARD_SLOW_BINS"`
	FastDrainDivider    uint8  `help:"Events between fast-bin drain steps." default:"4" env:"BOTDETECT_KEYBOARD_FAST_DRAIN_DIVIDER"`
	SlowDrainDivider    uint8  `help:"Events between slow-bin drain steps." default:"4" env:"BOTDETECT_KEYBOARD_SLOW_DRAIN_DIVIDER"`
	LockoutBinThreshold uint8  `help:"Per-bin count that trips lockout." default:"5" env:"BOTDETECT_KEYBOARD_LOCKOUT_BIN_THRESHOLD"`
	MaxActiveKeys       int    `help:"KeyTimerLog capacity; must be >= 14." default:"14" env:"BOTDETECT_KEYBOARD_MAX_ACTIVE_KEYS"`
}

// ToConfig converts the CLI tunables into a keyboard.Config.
func (o KeyboardOptions) ToConfig() keyboard.Config {
	return keyboard.Config{
		FastBinWidthMs:      o.FastBinWidthMs,
		FastBins:            o.FastBins,
		SlowBinWidthMs:      o.SlowBinWidthMs,
		SlowBins:            o.SlowBins,
		FastDrainDivider:    o.FastDrainDivider,
		SlowDrainDivider:    o.SlowDrainDivider,
		LockoutBinThreshold: o.LockoutBinThreshold,
		MaxActiveKeys:       o.MaxActiveKeys,
	}
}

// MouseOptions exposes the C5 mouse classifier's compile-time parameters
// (spec §6) as runtime tunables. SqrtFunc is not flag-exposable; the CLI
// always runs the math.Sqrt path.
type MouseOptions struct {
	MoveDelayLimit                       uint32  `help:"Quiescence clamp, in poll intervals." default:"10" env:"BOTDETECT_MOUSE_MOVE_DELAY_LIMIT"`
	AccelEventThreshold                  int32   `help:"Raw acceleration magnitude that opens an event." default:"40" env:"BOTDETECT_MOUSE_ACCEL_EVENT_THRESHOLD"`
	MinAccelTimeMs                       uint32  `help:"Minimum plausible acceleration-event duration." default:"20" env:"BOTDETECT_MOUSE_MIN_ACCEL_TIME_MS"`
	VelMult                              float64 `help:"Sub-unit precision scale applied to the sqrt result." default:"4" env:"BOTDETECT_MOUSE_VEL_MULT"`
	VelHistSize                          int     `help:"Velocity history ring length; even, >= 4." default:"8" env:"BOTDETECT_MOUSE_VEL_HIST_SIZE"`
	VelMatchError                        uint32  `help:"Numerator of the constant-acceleration match tolerance." default:"1" env:"BOTDETECT_MOUSE_VEL_MATCH_ERROR"`
	VelMatchBase                         uint32  `help:"Denominator of the constant-acceleration match tolerance." default:"4" env:"BOTDETECT_MOUSE_VEL_MATCH_BASE"`
	PollIntervalMs                       uint32  `help:"USB full-speed polling interval in ms." default:"8" env:"BOTDETECT_MOUSE_POLL_INTERVAL_MS"`
	EnableConstantAccelerationLockout    bool    `help:"Trip lockout when the constant-acceleration counter exceeds its threshold (disabled upstream; see spec §9)." default:"false" env:"BOTDETECT_MOUSE_ENABLE_CONSTANT_ACCEL_LOCKOUT"`
	ConstantAccelerationLockoutThreshold uint8   `help:"Counter value that trips lockout when the flag above is set." default:"7" env:"BOTDETECT_MOUSE_CONSTANT_ACCEL_LOCKOUT_THRESHOLD"`
}

// ToConfig converts the CLI tunables into a mouse.Config.
func (o MouseOptions) ToConfig() mouse.Config {
	cfg := mouse.DefaultConfig() // carries the SqrtFunc default
	cfg.MoveDelayLimit = o.MoveDelayLimit
	cfg.AccelEventThreshold = o.AccelEventThreshold
	cfg.MinAccelTimeMs = o.MinAccelTimeMs
	cfg.VelMult = o.VelMult
	cfg.VelHistSize = o.VelHistSize
	cfg.VelMatchError = o.VelMatchError
	cfg.VelMatchBase = o.VelMatchBase
	cfg.PollIntervalMs = o.PollIntervalMs
	cfg.EnableConstantAccelerationLockout = o.EnableConstantAccelerationLockout
	cfg.ConstantAccelerationLockoutThreshold = o.ConstantAccelerationLockoutThreshold
	return cfg
}

// LockoutOptions exposes the C2 lockout durations (spec §6) as runtime
// tunables.
type LockoutOptions struct {
	TempLockoutMs      uint32 `help:"Counter value at which TemporaryActive decays to TemporaryFlashing." default:"3000" env:"BOTDETECT_LOCKOUT_TEMP_MS"`
	TempLockoutFlashMs uint32 `help:"Counter value at which TemporaryFlashing decays to Inactive." default:"4000" env:"BOTDETECT_LOCKOUT_TEMP_FLASH_MS"`
}

// ToConfig converts the CLI tunables into a lockout.Config.
func (o LockoutOptions) ToConfig() lockout.Config {
	return lockout.Config{TempLockoutMs: o.TempLockoutMs, TempLockoutFlashMs: o.TempLockoutFlashMs}
}

// CLI is the top-level botdetectctl command tree.
type CLI struct {
	ConfigFile string `name:"config" help:"Path to a config file (json/yaml/toml)." env:"BOTDETECT_CONFIG"`

	Log      LogOptions      `embed:"" prefix:"log-"`
	Keyboard KeyboardOptions `embed:"" prefix:"keyboard-"`
	Mouse    MouseOptions    `embed:"" prefix:"mouse-"`
	Lockout  LockoutOptions  `embed:"" prefix:"lockout-"`

	Replay ReplayCmd     `cmd:"" help:"Replay a recorded HID report capture through the filter core."`
	Config ConfigCommand `cmd:"" help:"Manage configuration files."`
}

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInitCmd `cmd:"" help:"Generate a configuration file template."`
}

// ConfigInitCmd scaffolds a configuration file from the CLI's own tunables.
type ConfigInitCmd struct {
	Format string `help:"Output format." enum:"json,yaml,toml" default:"json"`
	Output string `help:"Destination file path." default:"botdetect.json"`
	Force  bool   `help:"Overwrite if the file already exists."`
}

// Run generates a configuration template via reflection over the CLI's
// tunable fields.
func (c *ConfigInitCmd) Run(cli *CLI) error {
	format := normalizeFormat(c.Format)
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}

	root := map[string]any{
		"log":      buildMapFromStruct(reflect.TypeOf(cli.Log)),
		"keyboard": buildMapFromStruct(reflect.TypeOf(cli.Keyboard)),
		"mouse":    buildMapFromStruct(reflect.TypeOf(cli.Mouse)),
		"lockout":  buildMapFromStruct(reflect.TypeOf(cli.Lockout)),
	}

	dest := c.Output
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(root, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(root)
	case "toml":
		data, err = toml.Marshal(root)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}

func buildMapFromStruct(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := lowerCamel(f.Name)
		out[key] = defaultValueForField(f.Type, f.Tag.Get("default"))
	}
	return out
}

func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}

func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	case reflect.Float32, reflect.Float64:
		f, _ := strconv.ParseFloat(def, 64)
		return f
	default:
		return nil
	}
}

// ReplayCmd feeds a recorded stream of HID reports through the filter core.
//
// Each non-blank line of File has the form "KIND TIMESTAMP_MS HEX_BYTES",
// KIND one of "kbd", "mouse", "tick". A "tick" line advances the simulated
// clock to TIMESTAMP_MS and calls the lockout controller's onMillisecondTick
// once; "kbd"/"mouse" lines decode HEX_BYTES and feed the corresponding
// detector. Report bytes are printed back out (possibly suppressed), one
// hex line per kbd/mouse line, and every LED state change is logged. Lockout
// state transitions are not logged on their own; the ones that change the
// LED show up through that LED log line.
type ReplayCmd struct {
	File string `arg:"" help:"Path to a capture file." type:"existingfile"`
}

type replayClock struct{ ms uint32 }

func (c *replayClock) NowMs() uint32 { return c.ms }

func (r *ReplayCmd) Run(cli *CLI, logger *slog.Logger, raw botlog.RawLogger) error {
	f, err := os.Open(r.File)
	if err != nil {
		return err
	}
	defer f.Close()

	clock := &replayClock{}
	ledSink := led.Func(func(s led.State) {
		logger.Info("led state changed", "state", s.String())
	})
	ctl := lockout.New(cli.Lockout.ToConfig(), ledSink)
	kbd := keyboard.NewDetector(cli.Keyboard.ToConfig(), ctl, clock, logger)
	ms := mouse.NewDetector(cli.Mouse.ToConfig(), ctl, clock, logger)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("line %d: expected at least 2 fields, got %d", lineNo, len(fields))
		}

		kind := fields[0]
		tsMs, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: bad timestamp %q: %w", lineNo, fields[1], err)
		}
		clock.ms = uint32(tsMs)

		switch kind {
		case "tick":
			ctl.Tick()
			continue
		case "kbd", "mouse":
			if len(fields) < 3 {
				return fmt.Errorf("line %d: %s report missing payload", lineNo, kind)
			}
			buf, err := hex.DecodeString(fields[2])
			if err != nil {
				return fmt.Errorf("line %d: bad hex payload: %w", lineNo, err)
			}
			raw.Log(true, buf)
			if kind == "kbd" {
				kbd.OnReport(buf)
			} else {
				ms.OnReport(buf)
			}
			raw.Log(false, buf)
			fmt.Println(hex.EncodeToString(buf))
		default:
			return fmt.Errorf("line %d: unknown report kind %q", lineNo, kind)
		}
	}
	return scanner.Err()
}
