// Package iomod wraps buffered stdin/stdout access as an `import io`
// host namespace.
package iomod

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emberlang/ember"
)

// Namespace returns the `io` host binding, reading from in and writing
// to out (pass os.Stdin/os.Stdout for the ordinary case).
func Namespace(in io.Reader, out io.Writer) ember.IdentifierData {
	reader := bufio.NewReader(in)
	return ember.Namespace("io",
		ember.Function("print", func(s string) { fmt.Fprint(out, s) }),
		ember.Function("println", func(s string) { fmt.Fprintln(out, s) }),
		ember.Function("readLine", func() (string, error) {
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return "", err
			}
			return strings.TrimRight(line, "\r\n"), nil
		}),
	)
}

// StdNamespace is the conventional `import io` binding over os.Stdin
// and os.Stdout.
func StdNamespace() ember.IdentifierData {
	return Namespace(os.Stdin, os.Stdout)
}
