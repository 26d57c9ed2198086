package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectStorage_URLs(t *testing.T) {
	s := NewObjectStorage("https://proj.example.co/")

	assert.Equal(t, "https://proj.example.co/storage/v1/upload/resumable", s.ResumableUploadEndpoint("kumpil"))
	assert.Equal(t,
		"https://proj.example.co/storage/v1/object/public/kumpil/baptismal_certificate_1700000000000.jpg",
		s.PublicURL("kumpil", "baptismal_certificate_1700000000000.jpg"))
	assert.Equal(t,
		"https://proj.example.co/storage/v1/object/public/profile/u1/my%20photo.png",
		s.PublicURL("profile", "u1/my photo.png"))
}

func TestS3Storage_URLs(t *testing.T) {
	s := NewS3Storage("eu-central-1", "")
	assert.Equal(t, "s3://receipts", s.ResumableUploadEndpoint("receipts"))
	assert.Equal(t, "https://receipts.s3.eu-central-1.amazonaws.com/r_1.pdf", s.PublicURL("receipts", "r_1.pdf"))

	s = NewS3Storage("us-east-1", "http://localhost:9000/")
	assert.Equal(t, "http://localhost:9000/receipts/r_1.pdf", s.PublicURL("receipts", "r_1.pdf"))
}
