package iocli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio читает из in и пишет в out. Пароль читается без эха,
// если in - терминал, иначе как обычная строка.
type Stdio struct {
	in     *bufio.Reader
	inFile *os.File
	out    io.Writer
	errOut io.Writer
}

// NewStdio создает IO поверх os.Stdin / os.Stdout / os.Stderr
func NewStdio() IO {
	return New(os.Stdin, os.Stdout, os.Stderr)
}

// New создает IO поверх произвольных потоков
func New(in io.Reader, out, errOut io.Writer) *Stdio {
	s := &Stdio{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
	if f, ok := in.(*os.File); ok {
		s.inFile = f
	}
	return s
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// ErrWriter возвращает поток для диагностики
func (s *Stdio) ErrWriter() io.Writer {
	return s.errOut
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	if s.inFile == nil || !term.IsTerminal(int(s.inFile.Fd())) {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	pwBytes, err := term.ReadPassword(int(s.inFile.Fd()))
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}
