package sqlite

// NewMemoryRepository creates a repository backed by an in-memory SQLite
// database. Intended for tests; closing the repository drops all data.
func NewMemoryRepository() (*ContractRepository, error) {
	backend, err := OpenBackend("")
	if err != nil {
		return nil, err
	}
	return NewContractRepository(backend), nil
}
