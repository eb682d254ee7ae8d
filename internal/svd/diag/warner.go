package diag

// Warner is the narrow interface process/finalize/derive depend on, so
// unit tests can substitute a generated mock (see mock_diag) instead of
// a real Sink when they only care which diagnostics were emitted.
type Warner interface {
	Warn(d Diagnostic)
	Warnf(kind Kind, path, format string, args ...interface{})
}

var _ Warner = (*Sink)(nil)
