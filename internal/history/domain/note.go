package domain

type Note struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}
