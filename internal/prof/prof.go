// Package prof wires the Go runtime profilers to command-line flags.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the output files. Empty paths disable the profiler.
type Options struct {
	CPUProfile string
	MemProfile string
	ExecTrace  string
}

func (o Options) enabled() bool {
	return o.CPUProfile != "" || o.MemProfile != "" || o.ExecTrace != ""
}

// Session is a set of running profilers. The zero value is stopped.
type Session struct {
	cpu     *os.File
	exec    *os.File
	memPath string
}

// Start enables the profilers named by opts. On error nothing is left
// running.
func Start(opts Options) (*Session, error) {
	s := &Session{memPath: opts.MemProfile}
	if !opts.enabled() {
		return s, nil
	}
	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpu = f
	}
	if opts.ExecTrace != "" {
		f, err := os.Create(opts.ExecTrace)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("execution trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("execution trace: %w", err)
		}
		s.exec = f
	}
	return s, nil
}

func (s *Session) stopCPU() error {
	if s.cpu == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpu.Close()
	s.cpu = nil
	return err
}

func (s *Session) stopTrace() error {
	if s.exec == nil {
		return nil
	}
	trace.Stop()
	err := s.exec.Close()
	s.exec = nil
	return err
}

func (s *Session) writeMem() error {
	if s.memPath == "" {
		return nil
	}
	path := s.memPath
	s.memPath = ""
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("heap profile: %w", err)
	}
	return f.Close()
}

// Stop ends every profiler and writes the heap profile. Safe to call more
// than once.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	return errors.Join(s.stopTrace(), s.stopCPU(), s.writeMem())
}
