package entity

// ArtifactType enumerates the kinds of persisted collection output.
type ArtifactType string

const (
	ArtifactHTML       ArtifactType = "html"
	ArtifactScreenshot ArtifactType = "screenshot"
	ArtifactRawData    ArtifactType = "raw_data"
)

// Artifact mirrors the `artifacts` PostgreSQL table schema.
type Artifact struct {
	InvestigationID string
	Type            ArtifactType
	StoragePath     string
	SHA256          string
	SizeBytes       int64
}

// Payload is a blob waiting to be written as one artifact of a collection event.
type Payload struct {
	Name        string // object name inside the event directory, e.g. index.html
	Type        ArtifactType
	ContentType string
	Data        []byte
}
