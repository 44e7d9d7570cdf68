package model

import "time"

// DocumentMeta describes one uploaded document as returned by the registry.
// Routing decisions read ByteSize only; the pipeline never opens file bytes
// itself.
type DocumentMeta struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	ByteSize         int64     `json:"byte_size"`
	StoredPath       string    `json:"stored_path"`
	UploadedAt       time.Time `json:"uploaded_at"`

	// Exactly one of ContractID and BatchID is set: documents belong either
	// to a saved contract or to a temporary pre-contract upload batch.
	ContractID string `json:"contract_id,omitempty"`
	BatchID    string `json:"batch_id,omitempty"`
}

// DocumentFailure records a document that could not be analyzed after the
// router exhausted both backends. The batch continues without it.
type DocumentFailure struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename,omitempty"`
	Error      string `json:"error"`
}
