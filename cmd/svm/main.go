/*
 * svm - Main process.
 *
 * Copyright 2026, svm contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/svm/command/parser"
	"github.com/rcornwell/svm/command/reader"
	"github.com/rcornwell/svm/config/configparser"
	"github.com/rcornwell/svm/internal/image"
	"github.com/rcornwell/svm/internal/kernel"
	logger "github.com/rcornwell/svm/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "svm.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optInteractive := getopt.BoolLong("interactive", 'i', "Drop into the interactive console instead of running to completion")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	Logger.Info("svm started")

	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		Logger.Error("configuration file not found", "path", *optConfig)
		os.Exit(1)
	}

	cfg, err := configparser.Load(*optConfig)
	if err != nil {
		Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	scheduler, err := kernel.ParseScheduler(cfg.Scheduler)
	if err != nil {
		Logger.Error("invalid scheduler", "error", err)
		os.Exit(1)
	}

	images := make([][]int32, 0, len(cfg.Executables))
	for _, path := range cfg.Executables {
		cells, err := image.Load(path)
		if err != nil {
			Logger.Error("failed to load executable", "path", path, "error", err)
			os.Exit(1)
		}
		images = append(images, cells)
	}

	session := &parser.Session{Scheduler: scheduler, Images: images}
	if err := session.Boot(); err != nil {
		Logger.Error("boot failed", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("received shutdown signal")
		session.Kernel.Board().Stop()
	}()

	if *optInteractive {
		reader.ConsoleReader(session)
	} else {
		session.Kernel.Board().Run()
	}

	Logger.Info("svm stopped")
}
