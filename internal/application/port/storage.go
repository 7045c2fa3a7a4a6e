package port

// DocumentStorage persists uploaded request documents (maintenance letters,
// receipts) and returns the stored path for the record.
type DocumentStorage interface {
	Save(relPath string, content []byte) (string, error)
	Read(relPath string) ([]byte, error)
	Delete(relPath string) error
}
