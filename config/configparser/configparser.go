/*
 * svm - Configuration file parser.
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

// Package configparser reads the machine's configuration file: one
// "scheduler=<name>" line and one or more "executable=<path>" lines,
// '#' starting a comment that runs to end of line.
package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Config is the parsed configuration: the recognized options are exactly
// these two fields; no others are recognized.
type Config struct {
	Scheduler   string
	Executables []string
}

var lineNumber int

// Load reads a configuration file and returns the parsed Config.
func Load(name string) (*Config, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &Config{}
	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if err := parseLine(cfg, raw); err != nil {
			return nil, err
		}
		if err == io.EOF {
			break
		}
	}
	return cfg, nil
}

type optionLine struct {
	line string
	pos  int
}

func parseLine(cfg *Config, raw string) error {
	line := &optionLine{line: raw}
	line.skipSpace()
	if line.isEOL() {
		return nil
	}

	name := line.takeToken()
	line.skipSpace()
	if line.pos >= len(line.line) || line.line[line.pos] != '=' {
		return fmt.Errorf("configparser: line %d: expected '=' after %q", lineNumber, name)
	}
	line.pos++ // skip '='
	value := strings.TrimSpace(line.takeRest())

	switch strings.ToLower(name) {
	case "scheduler":
		cfg.Scheduler = value
	case "executable":
		cfg.Executables = append(cfg.Executables, value)
	default:
		return fmt.Errorf("configparser: line %d: unknown option %q", lineNumber, name)
	}
	return nil
}

func (line *optionLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *optionLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

// takeToken collects a run of letters/digits, the option name.
func (line *optionLine) takeToken() string {
	start := line.pos
	for line.pos < len(line.line) {
		by := rune(line.line[line.pos])
		if !unicode.IsLetter(by) && !unicode.IsDigit(by) {
			break
		}
		line.pos++
	}
	return line.line[start:line.pos]
}

// takeRest returns everything up to a trailing comment or newline.
func (line *optionLine) takeRest() string {
	rest := line.line[line.pos:]
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimRight(rest, "\r\n")
}
