package config

type UploadConfig interface {
	GetMaxUploadBytes() int64
}

type Upload struct{}

var _ UploadConfig = Upload{}

func (Upload) GetMaxUploadBytes() int64 {
	return int64(getEnvInt("CURNCE_MAX_UPLOAD_BYTES", 10<<20))
}
