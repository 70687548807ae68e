package models

type User struct {
	ID           int     `json:"id"`
	Username     string  `json:"username"`
	DisplayName  *string `json:"display_name,omitempty"`
	PasswordHash string  `json:"-"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
