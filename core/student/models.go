package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rollcall/core"
)

type Student struct {
	ID        int    `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	PhotoURL  string `json:"photo_url" db:"photo_url"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName string `json:"first_name" validate:"required,notblank"`
	LastName  string `json:"last_name" validate:"required,notblank"`
	PhotoURL  string `json:"photo_url" validate:"omitempty,url"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.PhotoURL = core.CleanString(ns.PhotoURL)
	return validate.Struct(ns)
}
