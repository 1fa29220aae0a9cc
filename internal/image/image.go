// Package image reads executable images: the decimal-token cell format
// svm's program loader understands, shared by the non-interactive binary
// and the interactive console's `create` command.
package image

/*
 * svm - Executable image loader.
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

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads an executable image: whitespace-separated decimal integers, one
// cell per token, '#' starting a comment that runs to end of line. This is
// the only program-loading format svm understands; parsing richer formats is
// out of scope.
func Load(path string) ([]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cells []int32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		for _, token := range strings.Fields(text) {
			var cell int32
			if _, err := fmt.Sscanf(token, "%d", &cell); err != nil {
				return nil, fmt.Errorf("image: malformed cell %q in %s", token, path)
			}
			cells = append(cells, cell)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cells, nil
}
