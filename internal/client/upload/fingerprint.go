package upload

import (
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies "this blob going to this object" in the resume
// ledger. The object key is part of it, so a fresh key never resumes an
// older upload.
func Fingerprint(endpoint string, target models.UploadTarget, blob *models.Blob) string {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%s",
		endpoint, target.Bucket, target.ObjectKey, blob.Size, blob.ContentType)))
	return hex.EncodeToString(sum[:])
}
