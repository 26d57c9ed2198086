// Package uploads provides the client-side resume ledger for chunked uploads.
//
// # Overview
//
// Every resumable upload the client starts is recorded under the fingerprint
// of its blob (see upload.Fingerprint), together with the server-issued
// upload location and the last acknowledged offset. A session that finds its
// fingerprint here probes the server and continues from the stored location
// instead of starting over. Entries are removed once the upload completes;
// leftovers from abandoned attempts are pruned by age.
//
// Typical Usage
//
//	repo := uploads.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, entry)
//	e, _ := repo.Get(ctx, fingerprint)
//	_ = repo.UpdateProgress(ctx, fingerprint, offset)
//	_ = repo.Delete(ctx, fingerprint)
//	n, _ := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
//
// See also: internal/client/models.ResumeEntry for field semantics.
package uploads
