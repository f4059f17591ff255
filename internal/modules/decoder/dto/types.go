package dto

type DecoderInfo struct {
	Name    string
	Version string
	Enabled bool
	Binary  string
	Formats []string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Formats         []string
	Error           string
}

type OpenInput struct {
	Name string
	// Formats, when set, must all be supported by the decoder.
	Formats []string
}
