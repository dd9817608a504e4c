package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Package file shell.go contains the command line runner.

var (
	ErrExit  = errors.New("program exited with a failure code")
	ErrSpawn = errors.New("could not start the shell")
)

// Runner runs a complete command line, such as "tar -cpf out.tar -C . src",
// using the label to identify the program in errors.
//
// The env mapping is the complete environment of the child process,
// nothing is inherited from the current process unless it is in env.
type Runner interface {
	// Run runs the line and returns nil when the program exits with code 0.
	Run(ctx context.Context, line, label string, env map[string]string) error
	// Output runs the line and returns the standard output followed
	// by the standard error of the program.
	Output(ctx context.Context, line, label string, env map[string]string) (string, error)
}

// ExitError is returned by a Runner when the program ran but exited with a non-zero code.
type ExitError struct {
	Label string // Label identifies the program or mode.
	Line  string // Line is the command line that was run.
	Code  int    // Code is the exit code, or -1 if the program was killed by a signal.
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %s %d: %s", e.Label, ErrExit, e.Code, e.Line)
}

func (e *ExitError) Unwrap() error {
	return ErrExit
}

// Shell is the default Runner which hands each command line to bash.
//
//	func Tarball() {
//	    sh := command.Shell{}
//	    env := map[string]string{"PATH": os.Getenv("PATH")}
//	    err := sh.Run(context.Background(), "tar -cpf out.tar -C . src", "TAR", env)
//	    if err != nil {
//	        fmt.Fprintf(os.Stderr, "error: %v\n", err)
//	        return
//	    }
//	}
type Shell struct {
	Path   string    // Path of the shell, the default is BashPath.
	Debug  bool      // Debug traces each command as bash runs it, using the -x option.
	Stdout io.Writer // Stdout receives the program output of Run, the default is os.Stdout.
	Stderr io.Writer // Stderr receives the program errors of Run, the default is os.Stderr.
}

// Run the command line in a bash subprocess and wait for it to exit.
//
// A program that exits with a non-zero code returns an *ExitError that wraps ErrExit.
// When bash itself cannot be started the returned error wraps ErrSpawn,
// which means the host environment is broken rather than the archive or command.
func (s Shell) Run(ctx context.Context, line, label string, env map[string]string) error {
	cmd := s.command(ctx, line, env)
	cmd.Stdout = s.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = s.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return errors.Errorf("%s %w: %s: %v", label, ErrSpawn, cmd.Path, err)
	}
	if err := cmd.Wait(); err != nil {
		return exitError(err, label, line)
	}
	return nil
}

// Output runs the command line in a bash subprocess and returns the captured
// standard output, followed by the standard error if there was any.
//
// When the program exits with a non-zero code, the captured text is
// still returned together with an *ExitError.
// When bash cannot be started the text is empty and the error wraps ErrSpawn.
func (s Shell) Output(ctx context.Context, line, label string, env map[string]string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := s.command(ctx, line, env)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return "", errors.Errorf("%s %w: %s: %v", label, ErrSpawn, cmd.Path, err)
	}
	err := cmd.Wait()
	out := stdout.String()
	if stderr.Len() > 0 {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += stderr.String()
	}
	if err != nil {
		return out, exitError(err, label, line)
	}
	return out, nil
}

func (s Shell) command(ctx context.Context, line string, env map[string]string) *exec.Cmd {
	prog := s.Path
	if prog == "" {
		prog = BashPath
	}
	args := []string{}
	if s.Debug {
		args = append(args, "-x")
	}
	args = append(args, "-c", line)
	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Env = Environ(env)
	return cmd
}

// Environ converts the env mapping to the sorted "key=value" form used by the os/exec package.
// The returned slice is never nil, so a child process will not inherit the current environment.
func Environ(env map[string]string) []string {
	s := make([]string, 0, len(env))
	for _, key := range slices.Sorted(maps.Keys(env)) {
		s = append(s, key+"="+env[key])
	}
	return s
}

func exitError(err error, label, line string) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return errors.WithStack(&ExitError{
			Label: label,
			Line:  line,
			Code:  ee.ExitCode(),
		})
	}
	return errors.Errorf("%s wait: %w", label, err)
}
