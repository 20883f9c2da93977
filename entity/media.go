package entity

// Media is a downloaded attachment.
type Media struct {
	Data     []byte
	MimeType string
}

// FileMetadata holds GridFS metadata for a stored media file.
type FileMetadata struct {
	MIMEType string `bson:"mime_type"`
	Sender   string `bson:"sender"`
}
