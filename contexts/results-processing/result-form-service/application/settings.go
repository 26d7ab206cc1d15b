package application

// Settings are the workflow options an operator can tune per deployment.
type Settings struct {
	MinStationNumber           int
	MaxStationNumber           int
	MaxFileUploadSize          int64
	PrintCoverInIntake         bool
	PrintCoverInClearance      bool
	PrintCoverInQualityControl bool
	PrintCoverInAudit          bool
}

func DefaultSettings() Settings {
	return Settings{
		MinStationNumber:           1,
		MaxStationNumber:           102,
		MaxFileUploadSize:          10 << 20,
		PrintCoverInIntake:         true,
		PrintCoverInClearance:      true,
		PrintCoverInQualityControl: true,
		PrintCoverInAudit:          true,
	}
}

// StationInRange reports whether number is within the configured bounds.
func (s Settings) StationInRange(number int) bool {
	return number >= s.MinStationNumber && number <= s.MaxStationNumber
}
