package models

// File описывает сохранённый blob. Строка создаётся один раз при загрузке и больше не меняется.
type File struct {
	ID        int    `json:"id" db:"id"`
	Filename  string `json:"filename" db:"filename"`
	SizeBytes int64  `json:"size_bytes" db:"size_bytes"`
}
