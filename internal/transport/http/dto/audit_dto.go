package dto

type ArchiveAuditRequest struct {
	Format string `json:"format"`
}

type ArchiveAuditResponse struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}
