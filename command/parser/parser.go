/*
 * svm - Command executer.
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

// Package parser implements the interactive console's command dispatch:
// tokenizing one typed line, matching it (by unambiguous prefix) against
// the command table, and running the matched handler against a Session.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/svm/internal/image"
	"github.com/rcornwell/svm/internal/kernel"
)

// Session is the console's handle on the running machine: the booted
// kernel, if any, and everything needed to (re)boot one.
type Session struct {
	Kernel    *kernel.Kernel
	Scheduler kernel.Scheduler
	Images    [][]int32
	Configs   []kernel.ProcessConfig
}

// Boot (re)boots the machine from the session's images and scheduler,
// replacing any previously booted Kernel.
func (s *Session) Boot() error {
	if len(s.Images) == 0 {
		return errors.New("no executables configured")
	}
	s.Kernel = kernel.Boot(s.Scheduler, s.Images, s.Configs)
	return nil
}

type cmd struct {
	name     string // command name
	min      int    // minimum unambiguous prefix length
	process  func(*cmdLine, *Session) (bool, error)
	complete func(*cmdLine) []string
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "boot", min: 2, process: cmdBoot},
	{name: "step", min: 2, process: cmdStep},
	{name: "run", min: 1, process: cmdRun},
	{name: "regs", min: 1, process: cmdRegs},
	{name: "ps", min: 2, process: cmdPs},
	{name: "mem", min: 1, process: cmdMem},
	{name: "create", min: 2, process: cmdCreate},
	{name: "kill", min: 2, process: cmdKill},
	{name: "quit", min: 1, process: cmdQuit},
}

// ProcessCommand runs one typed line against session. The returned bool is
// true when the console should exit.
func ProcessCommand(commandLine string, session *Session) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	match := matchList(name)
	if len(match) == 0 {
		return false, fmt.Errorf("command not found: %s", name)
	}
	if len(match) > 1 {
		return false, fmt.Errorf("ambiguous command: %s", name)
	}

	return match[0].process(&line, session)
}

// matchCommand reports whether command is an unambiguous prefix (at least
// match.min characters) of match.name.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.name) {
		return false
	}
	for i := range command {
		if match.name[i] != command[i] {
			return false
		}
	}
	return len(command) >= match.min
}

func matchList(command string) []cmd {
	if command == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *cmdLine) isEOL() bool {
	return line.pos >= len(line.line)
}

// getWord returns the next whitespace-delimited, lowercased token.
func (line *cmdLine) getWord() string {
	line.skipSpace()
	start := line.pos
	for line.pos < len(line.line) && !unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
	return strings.ToLower(line.line[start:line.pos])
}

// getToken returns the next whitespace-delimited token without lowercasing
// it, for arguments such as file paths where case matters.
func (line *cmdLine) getToken() string {
	line.skipSpace()
	start := line.pos
	for line.pos < len(line.line) && !unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
	return line.line[start:line.pos]
}

// getInt parses the next token as a decimal integer. ok is false on EOL or
// a malformed token; the line position is left after the token regardless.
func (line *cmdLine) getInt() (value int, ok bool) {
	word := line.getWord()
	if word == "" {
		return 0, false
	}
	n, err := strconv.Atoi(word)
	if err != nil {
		return 0, false
	}
	return n, true
}

func cmdBoot(_ *cmdLine, session *Session) (bool, error) {
	slog.Debug("command: boot")
	return false, session.Boot()
}

func cmdStep(line *cmdLine, session *Session) (bool, error) {
	if session.Kernel == nil {
		return false, errors.New("not booted")
	}
	count := 1
	if n, ok := line.getInt(); ok {
		count = n
	}
	b := session.Kernel.Board()
	b.Start()
	for i := 0; i < count && b.Running(); i++ {
		b.Step()
	}
	return false, nil
}

func cmdRun(_ *cmdLine, session *Session) (bool, error) {
	if session.Kernel == nil {
		return false, errors.New("not booted")
	}
	session.Kernel.Board().Run()
	return false, nil
}

func cmdRegs(_ *cmdLine, session *Session) (bool, error) {
	if session.Kernel == nil {
		return false, errors.New("not booted")
	}
	r := session.Kernel.Board().CPU.Registers
	fmt.Printf("A=%d B=%d C=%d Flags=%d IP=%d SP=%d\n", r.A, r.B, r.C, r.Flags, r.IP, r.SP)
	return false, nil
}

func cmdPs(_ *cmdLine, session *Session) (bool, error) {
	if session.Kernel == nil {
		return false, errors.New("not booted")
	}
	for _, p := range session.Kernel.Processes() {
		fmt.Printf("pid=%d state=%s priority=%d start=%d end=%d\n",
			p.ID, p.State, p.Priority, p.MemoryStart, p.MemoryEnd)
	}
	return false, nil
}

func cmdMem(line *cmdLine, session *Session) (bool, error) {
	if session.Kernel == nil {
		return false, errors.New("not booted")
	}
	addr, ok := line.getInt()
	if !ok {
		return false, errors.New("usage: mem <addr> [len]")
	}
	length := 1
	if n, ok := line.getInt(); ok {
		length = n
	}

	mem := session.Kernel.Board().Memory
	for i := 0; i < length; i++ {
		fmt.Printf("%d: %d\n", addr+i, mem.ReadPhysical(addr+i))
	}
	return false, nil
}

// cmdCreate loads an image and starts it as a new process. A priority and
// instruction budget are optional trailing integers; when neither is
// given the process gets the scheduler's defaults (CreateProcess), and
// when either is given both are applied via CreateProcessWithConfig.
func cmdCreate(line *cmdLine, session *Session) (bool, error) {
	if session.Kernel == nil {
		return false, errors.New("not booted")
	}
	path := line.getToken()
	if path == "" {
		return false, errors.New("usage: create <path> [priority] [budget]")
	}
	img, err := image.Load(path)
	if err != nil {
		return false, err
	}

	priority, hasPriority := line.getInt()
	budget, hasBudget := line.getInt()
	if !hasPriority && !hasBudget {
		return false, session.Kernel.CreateProcess(img)
	}
	return false, session.Kernel.CreateProcessWithConfig(img, kernel.ProcessConfig{
		Priority:          priority,
		InstructionBudget: budget,
	})
}

func cmdKill(line *cmdLine, session *Session) (bool, error) {
	if session.Kernel == nil {
		return false, errors.New("not booted")
	}
	pid, ok := line.getInt()
	if !ok {
		return false, errors.New("usage: kill <pid>")
	}
	return false, session.Kernel.Kill(pid)
}

func cmdQuit(_ *cmdLine, _ *Session) (bool, error) {
	slog.Debug("command: quit")
	return true, nil
}
