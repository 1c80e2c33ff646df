package domain

// Level es la banda cualitativa del puntaje final.
type Level struct {
	Key         string `json:"key"`
	Label       string `json:"level"`
	LabelEn     string `json:"level_en"`
	Description string `json:"description"`
	Color       string `json:"color"`
}
