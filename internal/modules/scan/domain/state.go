package domain

type ScanState int

const (
	ScanIdle ScanState = iota
	ScanScanning
	ScanClosed
)

func (s ScanState) String() string {
	switch s {
	case ScanScanning:
		return "scanning"
	case ScanClosed:
		return "closed"
	default:
		return "idle"
	}
}
