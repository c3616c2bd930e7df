package report

// -----------------------------------------------------------------------------
// Below are all the "aesthetic" reporting functions that will only run if the
// log level is verbose or higher.  These provide additional information about
// the transpilation process to the user so as to make the tool more friendly.

// ReportHeader reports the pre-compilation header: the pyrs version and the
// source file being transpiled.
func ReportHeader(srcPath string) {
	if rep.logLevel >= LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayHeader(srcPath)
	}
}

// ReportBeginPhase reports the beginning of a transpilation phase.  Any phase
// that is still running is ended successfully first.
func ReportBeginPhase(phase string) {
	if rep.logLevel >= LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayEndPhase(true)
		displayBeginPhase(phase)
	}
}

// ReportEndPhase reports the end of the current phase.
func ReportEndPhase(success bool) {
	if rep.logLevel >= LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayEndPhase(success)
	}
}

// ReportFinished reports the concluding message for a run.
func ReportFinished() {
	if rep.logLevel >= LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayEndPhase(rep.errorCount == 0)
		displayFinished(rep.errorCount == 0, rep.errorCount, rep.warningCount)
	}
}
