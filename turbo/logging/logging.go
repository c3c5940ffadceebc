// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects where log records go. Console output is always on; file output is enabled
// by a non-empty Dir and rotated by lumberjack.
type Config struct {
	ConsoleLevel log.Lvl
	ConsoleJson  bool

	Dir        string
	FilePrefix string
	DirLevel   log.Lvl
	DirJson    bool
	MaxSize    datasize.ByteSize
	MaxBackups int
	MaxAgeDays int
}

// ConfigFromCtx reads the log.* flags. Unparseable levels fall back to info. Without
// log.dir.path, files go to <datadir>/logs when a datadir flag is present.
func ConfigFromCtx(filePrefix string, ctx *cli.Context) Config {
	cfg := Config{
		ConsoleLevel: log.LvlInfo,
		ConsoleJson:  ctx.Bool(LogJsonFlag.Name) || ctx.Bool(LogConsoleJsonFlag.Name),
		Dir:          ctx.String(LogDirPathFlag.Name),
		FilePrefix:   filePrefix,
		DirLevel:     log.LvlInfo,
		DirJson:      ctx.Bool(LogDirJsonFlag.Name),
		MaxBackups:   ctx.Int(LogDirMaxBackupsFlag.Name),
		MaxAgeDays:   ctx.Int(LogDirMaxAgeFlag.Name),
	}

	consoleVerbosity := ctx.String(LogConsoleVerbosityFlag.Name)
	if !ctx.IsSet(LogConsoleVerbosityFlag.Name) && ctx.IsSet(LogVerbosityFlag.Name) {
		consoleVerbosity = ctx.String(LogVerbosityFlag.Name)
	}
	if lvl, err := tryGetLogLevel(consoleVerbosity); err == nil {
		cfg.ConsoleLevel = lvl
	}
	if lvl, err := tryGetLogLevel(ctx.String(LogDirVerbosityFlag.Name)); err == nil {
		cfg.DirLevel = lvl
	}

	if cfg.Dir == "" {
		if datadir := ctx.String("datadir"); datadir != "" {
			cfg.Dir = filepath.Join(datadir, "logs")
		}
	}
	if prefix := ctx.String(LogDirPrefixFlag.Name); prefix != "" {
		cfg.FilePrefix = prefix
	}
	if err := cfg.MaxSize.UnmarshalText([]byte(ctx.String(LogDirMaxSizeFlag.Name))); err != nil {
		cfg.MaxSize = 100 * datasize.MB
	}
	return cfg
}

// SetupLoggerCtx configures the root logger from the log.* flags and returns it.
func SetupLoggerCtx(filePrefix string, ctx *cli.Context) log.Logger {
	return Setup(log.Root(), ConfigFromCtx(filePrefix, ctx))
}

// Setup replaces the handler of logger according to cfg. A log dir that cannot be created
// degrades to console logging with a warning.
func Setup(logger log.Logger, cfg Config) log.Logger {
	console := log.StderrHandler
	if cfg.ConsoleJson {
		console = log.StreamHandler(os.Stderr, log.JsonFormat())
	}
	logger.SetHandler(log.LvlFilterHandler(cfg.ConsoleLevel, console))

	if cfg.Dir == "" {
		logger.Warn("no log dir set, console logging only")
		return logger
	}
	if err := os.MkdirAll(cfg.Dir, 0764); err != nil {
		logger.Warn("failed to create log dir, console logging only", "dir", cfg.Dir, "err", err)
		return logger
	}

	format := log.TerminalFormatNoColor()
	if cfg.DirJson {
		format = log.JsonFormat()
	}
	file := log.StreamHandler(cfg.rotator(), format)
	logger.SetHandler(log.MultiHandler(logger.GetHandler(), log.LvlFilterHandler(cfg.DirLevel, file)))
	logger.Info("logging to file system", "log dir", cfg.Dir, "file prefix", cfg.FilePrefix, "log level", cfg.DirLevel, "json", cfg.DirJson)
	return logger
}

func (cfg Config) rotator() *lumberjack.Logger {
	maxSizeMB := int(cfg.MaxSize / datasize.MB)
	if maxSizeMB == 0 {
		maxSizeMB = 1
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, cfg.FilePrefix+".log"),
		MaxSize:    maxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}

// tryGetLogLevel accepts a level name or its number.
func tryGetLogLevel(s string) (log.Lvl, error) {
	if lvl, err := log.LvlFromString(s); err == nil {
		return lvl, nil
	}
	l, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return log.Lvl(l), nil
}
