package stores

// Config selects and parameterizes a Store backend.
type Config struct {
	Driver    string // "minio" or "local"
	LocalPath string
	Minio     MinioConfig
}

func New(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinioStore(cfg.Minio)
	default:
		if cfg.LocalPath == "" {
			cfg.LocalPath = "data/audio"
		}
		return NewLocalStore(cfg.LocalPath)
	}
}
