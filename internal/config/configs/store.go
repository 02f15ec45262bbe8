package configs

// Store configures the embedded document store. Path is the on-disk
// directory for the Badger database. InMemory keeps everything in RAM and
// ignores Path; it exists for tests and throwaway runs.
type Store struct {
	Path     string `env:"PATH" envDefault:"./data/adboard"`
	InMemory bool   `env:"IN_MEMORY" envDefault:"false"`
}
