package dto

type RegisterUserDTO struct {
	FirstName string `json:"firstName" validate:"required,max=50,name_spacial_char"`
	LastName  string `json:"lastName" validate:"required,max=50,name_spacial_char"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,password,max=100"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,max=100"`
}
