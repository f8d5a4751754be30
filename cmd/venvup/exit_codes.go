package main

import (
	"errors"

	verrors "github.com/odvcencio/venvup/pkg/errors"
)

type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	if e.code == 0 {
		return 1
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

// Exit codes distinguish the failure class for scripts wrapping venvup.
const (
	exitCodeGeneric     = 1
	exitCodeInterpreter = 2
	exitCodeManifest    = 3
	exitCodeStep        = 4
)

func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}

	var structured *verrors.Error
	if errors.As(err, &structured) {
		switch structured.Code {
		case verrors.ErrCodeInterpreterNotFound, verrors.ErrCodeInterpreterProbe:
			return exitCodeInterpreter
		case verrors.ErrCodeManifestMissing, verrors.ErrCodeManifestParse,
			verrors.ErrCodeProjectNotPython:
			return exitCodeManifest
		case verrors.ErrCodeEnvCreate, verrors.ErrCodeEnvCorrupt, verrors.ErrCodeEnvLocked,
			verrors.ErrCodePipUpgrade, verrors.ErrCodePipInstall, verrors.ErrCodeStepTimeout:
			return exitCodeStep
		}
	}
	return exitCodeGeneric
}
